package nqe

import (
	"bytes"
	"runtime"
	"strconv"
	"time"
)

// ActivityID is the stable identity of a host-scheduled activity: the thing
// a Process is bound to. The runtime never interprets its value, only
// compares it for equality, per spec.md §3 ("equality and ordering on
// Process are defined by this id alone").
type ActivityID uint64

// Host is the external scheduling collaborator the runtime depends on and
// never implements itself (spec.md §1, "OUT OF SCOPE"): something that can
// spawn a unit of concurrent work, hand back a stable identity for it
// immediately, and later raise an asynchronous signal inside it. Tests
// substitute a fake Host to get deterministic ordering; production code
// uses the default goroutine-backed one.
type Host interface {
	// Spawn starts fn as a new concurrently-scheduled activity and returns
	// its identity before fn has necessarily run past its first
	// instruction. fn receives that same identity.
	Spawn(fn func(ActivityID)) ActivityID

	// Deliver asynchronously raises sig inside the activity bound to
	// target. Fire-and-forget: it must never block the caller.
	Deliver(target *Process, sig error)

	// Now is the host clock, used by AsyncDelayed.
	Now() time.Time
}

// goroutineHost is the default Host: one goroutine per spawned Process,
// identified by that goroutine's own id, so CurrentProcess called from a
// spawned goroutine finds the Process it was spawned for.
// Go gives no portable way to inject an exception into another goroutine,
// so Deliver falls back to the per-Process pending-signal slot described in
// spec.md §9 ("emulate by making every suspension point check a per-Process
// 'pending async exception' slot").
type goroutineHost struct{}

func (goroutineHost) Spawn(fn func(ActivityID)) ActivityID {
	ids := make(chan ActivityID, 1)
	go func() {
		id := currentActivityID()
		ids <- id
		fn(id)
	}()
	return <-ids
}

func (goroutineHost) Deliver(target *Process, sig error) {
	if target == nil {
		return
	}
	target.raiseAsync(sig)
}

func (goroutineHost) Now() time.Time { return time.Now() }

// DefaultHost is the goroutine-backed Host used when none is supplied.
var DefaultHost Host = goroutineHost{}

// currentActivityID identifies the calling goroutine. No library in the
// corpus exposes goroutine identity (see DESIGN.md), so this parses the
// header line of runtime.Stack the way several ecosystem goroutine-id shims
// do. CurrentProcess uses it to find or lazily adopt the calling goroutine
// (spec.md §9, "Lazy 'current process'"), and goroutineHost.Spawn uses it
// to mint the ActivityID of each goroutine it starts, so both kinds of
// Process share one id space without collisions.
func currentActivityID() ActivityID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return ActivityID(id)
}
