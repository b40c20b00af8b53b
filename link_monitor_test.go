package nqe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario 2 (spec.md §8): p2 links p1 before p1 raises error E; p2 must
// observe LinkedProcessDied{p1, E} asynchronously at its next suspension
// point.
func TestLink_SymmetryOfEffect(t *testing.T) {
	wantErr := assert.AnError
	ready := make(chan struct{})

	p1, err := StartProcess(func(self *Process) error {
		<-ready
		return wantErr
	})
	require.NoError(t, err)

	p2, err := StartProcess(func(self *Process) error {
		Link(self, p1)
		close(ready)
		_, err := Receive[struct{}](self)
		return err
	})
	require.NoError(t, err)

	err = Wait(p2)
	require.Error(t, err)
	var linked *LinkedProcessDiedError
	require.ErrorAs(t, err, &linked)
	assert.True(t, linked.Who.Equal(p1))
	assert.Equal(t, wantErr, linked.Err)
}

// Linking to an already-dead process delivers LinkedProcessDied immediately
// rather than registering (spec.md §4.3's two-branch protocol).
func TestLink_AlreadyDeadDeliversImmediately(t *testing.T) {
	wantErr := assert.AnError
	p1, err := StartProcess(func(self *Process) error { return wantErr })
	require.NoError(t, err)
	require.Error(t, Wait(p1))

	p2, err := StartProcess(func(self *Process) error {
		Link(self, p1)
		_, err := Receive[struct{}](self)
		return err
	})
	require.NoError(t, err)

	err = Wait(p2)
	var linked *LinkedProcessDiedError
	require.ErrorAs(t, err, &linked)
	assert.True(t, linked.Who.Equal(p1))
}

func TestUnlink_SuppressesFurtherNotification(t *testing.T) {
	ready := make(chan struct{})
	p1, err := StartProcess(func(self *Process) error {
		<-ready
		return assert.AnError
	})
	require.NoError(t, err)

	p2, err := StartProcess(func(self *Process) error {
		Link(self, p1)
		Unlink(self, p1)
		close(ready)
		// Give p1 a moment to die; if Unlink failed to take effect this
		// process would instead observe a pending LinkedProcessDied here.
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, Wait(p2))
}

func TestDemonitor_SuppressesFurtherNotification(t *testing.T) {
	p2 := CurrentProcess()
	ready := make(chan struct{})

	p1, err := StartProcess(func(self *Process) error {
		<-ready
		return nil
	})
	require.NoError(t, err)

	Monitor(p2, p1)
	Demonitor(p2, p1)
	close(ready)
	require.NoError(t, Wait(p1))

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, p2.mbox.Len())
}

func TestKill_DeliversAsyncSignalAtNextSuspensionPoint(t *testing.T) {
	p, err := StartProcess(func(self *Process) error {
		_, err := Receive[string](self)
		return err
	})
	require.NoError(t, err)

	Kill(p, assert.AnError)

	err = Wait(p)
	require.Error(t, err)
	var killed *killedError
	require.ErrorAs(t, err, &killed)
	assert.Equal(t, assert.AnError, killed.reason)
}

// StopProcess only enqueues a Stop message; the target must receive and act
// on it itself, and keeps running until it chooses to.
func TestStopProcess_IsCooperativeNotForced(t *testing.T) {
	caller := CurrentProcess()
	sawStop := make(chan struct{})

	p, err := StartProcess(func(self *Process) error {
		stop, err := Receive[Stop](self)
		require.NoError(t, err)
		assert.True(t, stop.From.Equal(caller))
		close(sawStop)
		return nil
	})
	require.NoError(t, err)

	StopProcess(caller, p)
	<-sawStop
	assert.NoError(t, Wait(p))
}
