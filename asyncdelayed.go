package nqe

import "time"

// AsyncDelayed spawns a fire-and-forget activity — through caller's own Host,
// the same collaborator every Process is scheduled through — that waits d
// and then runs f, per spec.md §5. If f panics, caller is killed with the
// recovered value wrapped as its reason, mirroring "on failure it kills the
// caller with the raised exception."
func AsyncDelayed(caller *Process, d time.Duration, f func()) {
	host := caller.host
	scheduledAt := host.Now()
	host.Spawn(func(ActivityID) {
		time.Sleep(d)
		defer func() {
			if r := recover(); r != nil {
				caller.log.Printf("nqe: asyncDelayed fired at %s (scheduled %s) panicked: %v", host.Now(), scheduledAt, r)
				Kill(caller, errPanicValue{r})
			}
		}()
		f()
	})
}

type errPanicValue struct{ v interface{} }

func (e errPanicValue) Error() string { return "asyncDelayed: panic recovered" }
