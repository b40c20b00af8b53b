package nqe

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Status is the single-assignment terminal outcome of a Process, filled
// exactly once per spec.md §3.
type Status struct {
	Err error // nil on normal exit
}

// Logger is the minimal sink a Process or Supervisor logs through. The
// default, like the teacher's bollywood engine, just writes to standard
// output with fmt.Printf; nothing in this runtime requires more than Printf.
type Logger interface {
	Printf(format string, args ...interface{})
}

type stdLogger struct{}

func (stdLogger) Printf(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) }

// envelope is the type-erased message wrapper a mailbox actually stores.
type envelope struct {
	sender *Process
	msg    interface{}
}

// Process is a handle to one actor: a mailbox, a link set, a monitor set,
// and a terminal status cell (spec.md §3). Equality is by ActivityID alone.
type Process struct {
	id   ActivityID
	name string
	host Host
	log  Logger

	mu       sync.Mutex
	mbox     *list.List
	notEmpty *sync.Cond

	links    map[ActivityID]*Process
	monitors map[ActivityID]*Process

	status       *Status
	statusFilled *sync.Cond

	pending error // asynchronously-delivered signal awaiting a suspension point

	config        Config
	warnedBacklog bool
}

func newProcess(id ActivityID, host Host, log Logger, cfg Config) *Process {
	if host == nil {
		host = DefaultHost
	}
	if log == nil {
		log = stdLogger{}
	}
	p := &Process{
		id:       id,
		name:     uuid.NewString(),
		host:     host,
		log:      log,
		config:   cfg,
		mbox:     list.New(),
		links:    make(map[ActivityID]*Process),
		monitors: make(map[ActivityID]*Process),
	}
	p.notEmpty = sync.NewCond(&p.mu)
	p.statusFilled = sync.NewCond(&p.mu)
	return p
}

// ID returns the stable host activity identity backing this Process.
func (p *Process) ID() ActivityID { return p.id }

// Equal reports whether two Process handles refer to the same activity.
func (p *Process) Equal(other *Process) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.id == other.id
}

// String renders a short debug label: the uuid minted at creation, not the
// spec-significant identity (that's ID()).
func (p *Process) String() string {
	if p == nil {
		return "<nil process>"
	}
	return fmt.Sprintf("process[%s]", p.name)
}

// IsRunning reports whether the Process's status is still unfilled.
func (p *Process) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status == nil
}

// GetException returns the stored terminal error, and whether the process
// has in fact terminated. A live process reports (nil, false).
func (p *Process) GetException() (error, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == nil {
		return nil, false
	}
	return p.status.Err, true
}

// Wait blocks until the Process's status cell is filled and returns its
// terminal error (nil for a normal exit).
func Wait(p *Process) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.status == nil {
		p.statusFilled.Wait()
	}
	return p.status.Err
}

// raiseAsync records an asynchronously-delivered signal and wakes any
// suspension point blocked on this Process's mailbox or status.
func (p *Process) raiseAsync(sig error) {
	p.mu.Lock()
	p.pending = sig
	p.notEmpty.Broadcast()
	p.statusFilled.Broadcast()
	p.mu.Unlock()
}

// enqueue appends msg to the mailbox unless the Process has already died,
// in which case it is silently discarded (spec.md §4.2, "send never
// fails... delivery to a dead process is silently discarded").
func (p *Process) enqueue(env *envelope) {
	p.mu.Lock()
	if p.status != nil {
		p.mu.Unlock()
		return
	}
	p.mbox.PushBack(env)
	backlog := p.mbox.Len()
	warn := p.config.MailboxWarnSize > 0 && !p.warnedBacklog && backlog > p.config.MailboxWarnSize
	if warn {
		p.warnedBacklog = true
	}
	p.notEmpty.Broadcast()
	p.mu.Unlock()

	if warn {
		p.log.Printf("nqe: %s mailbox backlog exceeds %d (currently %d)", p, p.config.MailboxWarnSize, backlog)
	}
}

// Send encodes msg with the given sender (nil if none) and appends it to
// p's mailbox. Never blocks, never fails.
func Send(p *Process, sender *Process, msg interface{}) {
	p.enqueue(&envelope{sender: sender, msg: msg})
}

// die is the cleanup sequence from spec.md §4.4, run exactly once per
// Process on any exit path. The status-fill + monitor-snapshot + registry
// removal happen as one atomic unit: this is the linearization point of
// death referenced throughout spec.md §4.3 and §5.
func (p *Process) die(result error) {
	p.mu.Lock()
	if p.status != nil {
		p.mu.Unlock()
		return
	}
	p.status = &Status{Err: result}
	monitors := make([]*Process, 0, len(p.monitors))
	for _, m := range p.monitors {
		monitors = append(monitors, m)
	}
	links := make([]*Process, 0, len(p.links))
	for _, l := range p.links {
		links = append(links, l)
	}
	globalRegistry.remove(p.id)
	p.statusFilled.Broadcast()
	p.notEmpty.Broadcast()
	p.mu.Unlock()

	for _, m := range monitors {
		Send(m, p, Died{Who: p, Err: result})
	}
	for _, l := range links {
		p.host.Deliver(l, &LinkedProcessDiedError{Who: p, Err: result})
	}
}
