package nqe

// Link registers me to be notified asynchronously should remote die. If
// remote has already died, the notification is delivered immediately
// instead of being registered — spec.md §4.3's two-branch protocol,
// evaluated atomically with remote's own death so there is no window in
// which a death goes unobserved by either path.
func Link(me, remote *Process) {
	remote.mu.Lock()
	if remote.status == nil {
		remote.links[me.id] = me
		remote.mu.Unlock()
		return
	}
	err := remote.status.Err
	remote.mu.Unlock()
	me.host.Deliver(me, &LinkedProcessDiedError{Who: remote, Err: err})
}

// Unlink removes me from remote's link set. Always succeeds, even if remote
// has already died (its link set is no longer consulted after cleanup).
func Unlink(me, remote *Process) {
	remote.mu.Lock()
	delete(remote.links, me.id)
	remote.mu.Unlock()
}

// Monitor registers me to receive a Died message when remote terminates. If
// remote is already dead, the Died message is enqueued immediately.
func Monitor(me, remote *Process) {
	remote.mu.Lock()
	if remote.status == nil {
		remote.monitors[me.id] = me
		remote.mu.Unlock()
		return
	}
	err := remote.status.Err
	remote.mu.Unlock()
	Send(me, remote, Died{Who: remote, Err: err})
}

// Demonitor removes me from remote's monitor set.
func Demonitor(me, remote *Process) {
	remote.mu.Lock()
	delete(remote.monitors, me.id)
	remote.mu.Unlock()
}

// Kill asynchronously delivers reason to target as its pending signal, the
// way a link delivery does, but from arbitrary calling code rather than
// from a peer's death. The target observes it at its next suspension point.
func Kill(target *Process, reason error) {
	target.host.Deliver(target, newKilled(reason))
}

// StopProcess sends the cooperative Stop request from me to target. Unlike
// Kill, this never forces anything: target must itself receive and act on
// the Stop message.
func StopProcess(me, target *Process) {
	Send(target, me, Stop{From: me})
}
