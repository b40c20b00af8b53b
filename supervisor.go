package nqe

import (
	"sync"

	"github.com/pkg/errors"
)

// Strategy decides how a Supervisor reacts to one child's termination, per
// spec.md §4.5's table. apply runs with the child already dropped from the
// Supervisor's tracked set; it reports whether the Supervisor's main loop
// should stop, and the error (possibly nil) the Supervisor should itself
// terminate with if so.
type Strategy interface {
	apply(sv *Supervisor, child *Process, childErr error) (stop bool, propagate error)
}

// IgnoreAll drops every terminated child from state and keeps running,
// regardless of whether it exited normally or with an error.
func IgnoreAll() Strategy { return ignoreAllStrategy{} }

type ignoreAllStrategy struct{}

func (ignoreAllStrategy) apply(sv *Supervisor, child *Process, childErr error) (bool, error) {
	return false, nil
}

// IgnoreGraceful drops normally-exited children and keeps running, but on
// an erroring child cancels every remaining child and propagates that
// error.
func IgnoreGraceful() Strategy { return ignoreGracefulStrategy{} }

type ignoreGracefulStrategy struct{}

func (ignoreGracefulStrategy) apply(sv *Supervisor, child *Process, childErr error) (bool, error) {
	if childErr == nil {
		return false, nil
	}
	sv.cancelAllChildren()
	return true, childErr
}

// KillAll cancels every remaining child on ANY termination — normal or
// erroring — and stops the Supervisor, propagating the error if there was
// one.
func KillAll() Strategy { return killAllStrategy{} }

type killAllStrategy struct{}

func (killAllStrategy) apply(sv *Supervisor, child *Process, childErr error) (bool, error) {
	sv.cancelAllChildren()
	return true, childErr
}

// Notify drops the terminated child and runs fn(child, outcome)
// transactionally with respect to the Supervisor's own state. If fn
// returns an error, every remaining child is cancelled and that error
// propagates as the Supervisor's own termination; otherwise the Supervisor
// keeps running.
func Notify(fn func(child *Process, outcome error) error) Strategy {
	return notifyStrategy{fn}
}

type notifyStrategy struct {
	fn func(child *Process, outcome error) error
}

func (n notifyStrategy) apply(sv *Supervisor, child *Process, childErr error) (bool, error) {
	if err := n.fn(child, childErr); err != nil {
		sv.cancelAllChildren()
		return true, err
	}
	return false, nil
}

// --- Supervisor ---

// addChildMsg is the AddChild control message from spec.md §4.5, issued as
// a query so the caller gets the spawned child's handle back synchronously.
type addChildMsg struct {
	action Action
	opts   []Option
}

// removeChildMsg is the RemoveChild control message: async, drop and cancel.
type removeChildMsg struct{ child *Process }

// stopSupervisorMsg is the StopSupervisor control message: async, cancel
// everything and exit the loop.
type stopSupervisorMsg struct{}

// haltSupervisor is an internal sentinel a Strategy's verdict turns into,
// telling the main loop to stop and what to terminate with.
type haltSupervisor struct{ err error }

func (h *haltSupervisor) Error() string {
	if h.err == nil {
		return "supervisor stopped"
	}
	return h.err.Error()
}

// Supervisor is a Process (per spec.md §4.5, "a long-running process") that
// owns a dynamic set of child activities and reacts to their termination
// according to a Strategy. Its body is grounded on
// game.RoomManagerActor's Receive loop (room tracking + Stopping handling),
// generalized from that actor's single hard-coded shutdown policy into a
// pluggable Strategy table, and from a fixed child type (GameActor) to an
// arbitrary Action.
type Supervisor struct {
	self     *Process
	strategy Strategy

	mu       sync.Mutex
	children map[ActivityID]*Process

	log Logger
}

// NewSupervisor starts a Supervisor process applying strategy and returns
// its handle. The Supervisor is itself a Process: it can be linked,
// monitored, or supervised like any other (spec.md §9, "Supervisor as
// actor").
func NewSupervisor(strategy Strategy, opts ...Option) (*Supervisor, error) {
	if strategy == nil {
		strategy = IgnoreAll()
	}
	sv := &Supervisor{
		strategy: strategy,
		children: make(map[ActivityID]*Process),
	}
	p, err := StartProcess(sv.run, opts...)
	if err != nil {
		return nil, err
	}
	sv.self = p
	sv.log = p.log
	return sv, nil
}

// Process returns the Supervisor's own Process handle.
func (sv *Supervisor) Process() *Process { return sv.self }

func (sv *Supervisor) trackChild(child *Process) {
	sv.mu.Lock()
	sv.children[child.id] = child
	sv.mu.Unlock()
}

func (sv *Supervisor) dropChild(child *Process) {
	sv.mu.Lock()
	delete(sv.children, child.id)
	sv.mu.Unlock()
}

func (sv *Supervisor) hasChild(child *Process) bool {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	_, ok := sv.children[child.id]
	return ok
}

func (sv *Supervisor) snapshotChildren() []*Process {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	out := make([]*Process, 0, len(sv.children))
	for _, c := range sv.children {
		out = append(out, c)
	}
	return out
}

// cancelAllChildren kills every tracked child and clears the set. Called
// both by strategies reacting to a death and, unconditionally, whenever the
// main loop exits (spec.md §4.5, "Shutdown guarantee").
func (sv *Supervisor) cancelAllChildren() {
	sv.mu.Lock()
	children := make([]*Process, 0, len(sv.children))
	for _, c := range sv.children {
		children = append(children, c)
	}
	sv.children = make(map[ActivityID]*Process)
	sv.mu.Unlock()

	for _, c := range children {
		Kill(c, errRemovedBySupervisor)
	}
}

// AddChild starts action as a new child and returns its handle, via the
// synchronous AddChild query from spec.md §4.5. It may be called from any
// Process, including ones never started via StartProcess — the caller is
// identified lazily through CurrentProcess.
func AddChild(sv *Supervisor, action Action, opts ...Option) (*Process, error) {
	me := CurrentProcess()
	reply, err := Query[addChildMsg, childReply](me, sv.self, addChildMsg{action: action, opts: opts})
	if err != nil {
		return nil, err
	}
	return reply.child, reply.err
}

// childReply is the AddChild query's response envelope.
type childReply struct {
	child *Process
	err   error
}

// RemoveChild asynchronously drops child from sv and cancels it.
func RemoveChild(sv *Supervisor, child *Process) {
	Send(sv.self, nil, removeChildMsg{child: child})
}

// StopSupervisor asynchronously cancels every child and terminates sv.
func StopSupervisor(sv *Supervisor) {
	Send(sv.self, nil, stopSupervisorMsg{})
}

// run is the Supervisor's Action: a single Dispatch loop over its own
// mailbox, which carries both control messages and — because Monitor
// delivers death as an ordinary Died message — child-termination events.
// This is exactly spec.md §9's "Supervisor as actor" observation: no
// separate termination channel is needed, fairness between control traffic
// and child deaths falls out of Dispatch's single first-match-wins scan.
func (sv *Supervisor) run(self *Process) error {
	defer sv.cancelAllChildren()

	for {
		err := Dispatch(self,
			OnQuery[addChildMsg, childReply](func(m addChildMsg) (childReply, error) {
				child, err := StartProcess(m.action, m.opts...)
				if err != nil {
					return childReply{err: err}, nil
				}
				sv.trackChild(child)
				Monitor(self, child)
				return childReply{child: child}, nil
			}),
			Case[removeChildMsg](func(m removeChildMsg) error {
				sv.dropChild(m.child)
				Kill(m.child, errRemovedBySupervisor)
				return nil
			}),
			Case[stopSupervisorMsg](func(stopSupervisorMsg) error {
				return &haltSupervisor{}
			}),
			Case[Died](func(d Died) error {
				if !sv.hasChild(d.Who) {
					return nil // already removed via RemoveChild
				}
				// Snapshot who else was tracked *before* the strategy runs:
				// KillAll's apply clears sv.children outright via
				// cancelAllChildren, so checking sv.hasChild afterward would
				// wrongly say every sibling was never ours to aggregate.
				eligible := make(map[ActivityID]bool)
				for _, c := range sv.snapshotChildren() {
					eligible[c.id] = true
				}
				sv.dropChild(d.Who)

				stop, propagate := sv.strategy.apply(sv, d.Who, d.Err)
				if !stop {
					return nil
				}
				// Two linked-or-monitored children can die around the same
				// moment (spec.md §4.5): drain any further Died events for
				// children that were tracked when this one arrived but are
				// already queued in our own mailbox, aggregating their
				// errors with multierrAppend rather than reporting only the
				// one that happened to trigger the halt. A sibling that died
				// only because this supervisor cancelled it contributes
				// nothing to the aggregate.
				for {
					extra, ok := TryReceiveMatch(self, func(x Died) bool { return eligible[x.Who.id] })
					if !ok {
						break
					}
					delete(eligible, extra.Who.id)
					sv.dropChild(extra.Who)
					if errors.Is(extra.Err, errRemovedBySupervisor) {
						continue
					}
					propagate = multierrAppend(propagate, extra.Err)
				}
				return &haltSupervisor{err: propagate}
			}),
		)
		if err == nil {
			continue
		}
		var halt *haltSupervisor
		if errors.As(err, &halt) {
			return halt.err
		}
		return err
	}
}
