package nqe

import (
	"container/list"
	"sync/atomic"
	"time"
)

// Handler is one arm of a Dispatch call: something that can tell whether it
// matches an envelope, and run against it once matched. matches must be
// side-effect free; invoke is where the actual handler body runs, and it is
// always called with the owning Process's mailbox lock released so it is
// free to Send, spawn, or otherwise re-enter the runtime.
type Handler interface {
	matches(env *envelope) bool
	invoke(p *Process, env *envelope) error
}

// Case matches any message of type T, per spec.md §4.2's Case<T>.
func Case[T any](fn func(T) error) Handler {
	return caseHandler[T]{fn}
}

type caseHandler[T any] struct{ fn func(T) error }

func (h caseHandler[T]) matches(env *envelope) bool { _, ok := env.msg.(T); return ok }
func (h caseHandler[T]) invoke(_ *Process, env *envelope) error {
	return h.fn(env.msg.(T))
}

// Match matches T messages for which pred holds, per spec.md §4.2's
// Match<T>(pred, fn).
func Match[T any](pred func(T) bool, fn func(T) error) Handler {
	return matchHandler[T]{pred, fn}
}

type matchHandler[T any] struct {
	pred func(T) bool
	fn   func(T) error
}

func (h matchHandler[T]) matches(env *envelope) bool {
	v, ok := env.msg.(T)
	return ok && h.pred(v)
}
func (h matchHandler[T]) invoke(_ *Process, env *envelope) error {
	return h.fn(env.msg.(T))
}

// OnQuery matches a query envelope of request type Req, computes fn(q), and
// replies (me, resp) to the querying Process, per spec.md §4.2's
// Query<Req,Resp>(fn).
func OnQuery[Req, Resp any](fn func(Req) (Resp, error)) Handler {
	return queryHandler[Req, Resp]{fn}
}

type queryHandler[Req, Resp any] struct {
	fn func(Req) (Resp, error)
}

func (h queryHandler[Req, Resp]) matches(env *envelope) bool {
	_, ok := env.msg.(queryEnvelope[Req])
	return ok
}

func (h queryHandler[Req, Resp]) invoke(p *Process, env *envelope) error {
	qe := env.msg.(queryEnvelope[Req])
	resp, err := h.fn(qe.req)
	Send(qe.from, p, replyEnvelope[Resp]{from: p, resp: resp, err: err})
	return nil
}

// Default matches anything. Per spec.md §4.2 it must be last in the handler
// list to be useful, since matching is first-match-wins.
func Default(fn func(interface{}) error) Handler {
	return defaultHandler{fn}
}

type defaultHandler struct{ fn func(interface{}) error }

func (defaultHandler) matches(*envelope) bool { return true }
func (h defaultHandler) invoke(_ *Process, env *envelope) error {
	return h.fn(env.msg)
}

// queryEnvelope is the (from, q) shape a query builds and a responder's
// OnQuery handler recognizes.
type queryEnvelope[Req any] struct {
	from *Process
	req  Req
}

// replyEnvelope is the (from, resp) shape a query call waits for.
type replyEnvelope[Resp any] struct {
	from *Process
	resp Resp
	err  error
}

// Dispatch is multi-pattern selective receive: handlers are tried in order,
// first-match-wins, against each mailbox message in FIFO order, with the
// same non-reordering discipline as ReceiveMatch. It blocks when no
// currently-buffered message matches any handler.
func Dispatch(p *Process, handlers ...Handler) error {
	p.mu.Lock()
	for {
		if p.pending != nil {
			err := p.pending
			p.pending = nil
			p.mu.Unlock()
			return err
		}

		var matched *list.Element
		var handler Handler
		for e := p.mbox.Front(); e != nil; e = e.Next() {
			env := e.Value.(*envelope)
			for _, h := range handlers {
				if h.matches(env) {
					matched, handler = e, h
					break
				}
			}
			if matched != nil {
				break
			}
		}

		if matched == nil {
			p.notEmpty.Wait()
			continue
		}

		env := matched.Value.(*envelope)
		p.mbox.Remove(matched)
		p.mu.Unlock()
		return handler.invoke(p, env)
	}
}

// Query sends (me, q) to remote and blocks for the tagged (remote, resp)
// reply, demultiplexing concurrent outstanding queries on the same mailbox
// by the remote's identity (spec.md §4.2, §8 "Query round-trip").
//
// The optional QueryTimeout races against the reply via a CAS'd resolved
// flag rather than trusting timer.Stop()'s return value: Stop can't tell
// you whether its callback had already started, so a reply landing in the
// same instant the timer fires could otherwise still deliver a
// QueryTimeoutError after Query has already returned successfully — a
// stray asynchronous signal with nothing left to receive it until some
// later, unrelated suspension point does. Whichever side wins the CAS is
// the one that gets to act; the loser is a no-op.
func Query[Req, Resp any](me *Process, remote *Process, q Req) (Resp, error) {
	Send(remote, me, queryEnvelope[Req]{from: me, req: q})

	var resolved atomic.Bool
	var timer *time.Timer
	if me.config.QueryTimeout > 0 {
		timer = time.AfterFunc(me.config.QueryTimeout, func() {
			if resolved.CompareAndSwap(false, true) {
				me.host.Deliver(me, &QueryTimeoutError{Remote: remote})
			}
		})
		defer timer.Stop()
	}

	reply, err := ReceiveMatch(me, func(r replyEnvelope[Resp]) bool {
		if r.from == nil || remote == nil || r.from.id != remote.id {
			return false
		}
		// Claim resolution before accepting the match: if the timeout
		// already won this race, leave the message alone rather than
		// consume it out from under a delivery that's already in flight.
		return resolved.CompareAndSwap(false, true)
	})
	if err != nil {
		var zero Resp
		return zero, err
	}
	return reply.resp, reply.err
}

// Respond waits for one query of request type Req, computes fn(q), and
// replies. It is Dispatch restricted to a single OnQuery handler
// (spec.md §4.2's respond(fn)).
func Respond[Req, Resp any](me *Process, fn func(Req) (Resp, error)) error {
	return Dispatch(me, OnQuery[Req, Resp](fn))
}
