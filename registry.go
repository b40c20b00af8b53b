package nqe

import "sync"

// registry is the process-wide map from host activity id to Process,
// spec.md §4.1. lookupOrCreate and remove are its two core operations;
// insert, lookup and size complete it. Every operation runs under one
// mutex: a caller must never observe a stale Process.
type registry struct {
	mu   sync.Mutex
	byID map[ActivityID]*Process
}

func newRegistry() *registry {
	return &registry{byID: make(map[ActivityID]*Process)}
}

var globalRegistry = newRegistry()

// lookupOrCreate returns the Process bound to id, creating it via factory
// if this is the first observation of that activity. This is how a
// goroutine that never went through StartProcess gets adopted lazily
// (spec.md §9, "Lazy 'current process'").
func (r *registry) lookupOrCreate(id ActivityID, factory func() *Process) *Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		return p
	}
	p := factory()
	r.byID[id] = p
	return p
}

// insert registers a freshly-created Process. Used by StartProcess, which
// already knows no entry can exist yet for a brand-new ActivityID.
func (r *registry) insert(p *Process) {
	r.mu.Lock()
	r.byID[p.id] = p
	r.mu.Unlock()
}

// lookup returns the Process bound to id, if any is currently registered.
func (r *registry) lookup(id ActivityID) (*Process, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	return p, ok
}

// remove drops id's entry. Invoked only by Process.die's cleanup sequence.
func (r *registry) remove(id ActivityID) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

// size reports the number of live, registered processes. Exposed for tests
// asserting registry-consistency (spec.md §8).
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// CurrentProcess returns the Process bound to the calling goroutine,
// creating one lazily on first use if it was never started via
// StartProcess (spec.md §4.1).
func CurrentProcess() *Process {
	id := currentActivityID()
	return globalRegistry.lookupOrCreate(id, func() *Process {
		return newProcess(id, DefaultHost, nil, DefaultConfig())
	})
}

// RegistrySize reports how many Processes are currently registered
// (i.e. currently live). Exposed for the registry-consistency property.
func RegistrySize() int { return globalRegistry.size() }
