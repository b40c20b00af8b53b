package nqe

import "time"

// fakeHost is a hand-rolled test double standing in for DefaultHost, the way
// lguibr-pongo's own tests hand-roll fakes (game/test_utils.go) rather than
// reaching for a mocking library. It still spawns on real goroutines — no
// point faking that — but lets tests observe every asynchronously-delivered
// signal by draining a channel instead of racing on shared state.
type fakeHost struct {
	delivered chan delivery
}

type delivery struct {
	target *Process
	sig    error
}

func newFakeHost() *fakeHost {
	return &fakeHost{delivered: make(chan delivery, 64)}
}

func (h *fakeHost) Spawn(fn func(ActivityID)) ActivityID {
	return DefaultHost.Spawn(fn)
}

func (h *fakeHost) Deliver(target *Process, sig error) {
	target.raiseAsync(sig)
	select {
	case h.delivered <- delivery{target: target, sig: sig}:
	default:
	}
}

func (h *fakeHost) Now() time.Time { return time.Now() }
