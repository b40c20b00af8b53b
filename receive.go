package nqe

import "fmt"

// ReceiveMatch performs a selective receive: it scans p's mailbox front to
// back for the first message whose runtime type is T and for which pred
// holds, removes only that message, and returns it. Every other message
// keeps its place — there is no dequeue-then-restore step because nothing
// else is ever removed from the list (spec.md §4.2, §8
// "Selective-receive non-reordering"). Blocks when no match is currently
// available.
func ReceiveMatch[T any](p *Process, pred func(T) bool) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.pending != nil {
			err := p.pending
			p.pending = nil
			var zero T
			return zero, err
		}
		for e := p.mbox.Front(); e != nil; e = e.Next() {
			env := e.Value.(*envelope)
			if v, ok := env.msg.(T); ok && pred(v) {
				p.mbox.Remove(e)
				return v, nil
			}
		}
		p.notEmpty.Wait()
	}
}

// Receive is ReceiveMatch with an always-true predicate: the next message
// of type T, regardless of content.
func Receive[T any](p *Process) (T, error) {
	return ReceiveMatch(p, func(T) bool { return true })
}

// TryReceiveMatch is ReceiveMatch's non-blocking sibling: it scans the
// mailbox once for a message of type T satisfying pred and reports ok=false
// immediately if none is currently buffered, instead of waiting for one to
// arrive. It never consults p.pending — a caller peeking its own mailbox
// this way is not "suspending", so an asynchronously-delivered signal stays
// queued for the next real suspension point.
func TryReceiveMatch[T any](p *Process, pred func(T) bool) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.mbox.Front(); e != nil; e = e.Next() {
		env := e.Value.(*envelope)
		if v, ok := env.msg.(T); ok && pred(v) {
			p.mbox.Remove(e)
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Cast downcasts a dynamically-typed message to T, surfacing
// CouldNotCastDynamicError on mismatch. Used by Default handlers and by
// callers that must inspect a message whose type Dispatch didn't already
// pin down.
func Cast[T any](msg interface{}) (T, error) {
	if v, ok := msg.(T); ok {
		return v, nil
	}
	var zero T
	return zero, newCouldNotCastDynamic(fmt.Sprintf("%T", zero), msg)
}
