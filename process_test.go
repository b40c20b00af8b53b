package nqe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario 3 (spec.md §8): sender sends 1, 2, 3, "x" to r; receive_match<string>
// returns "x" without disturbing the ints' order, then three receive_match<int>
// calls return 1, 2, 3 in that order. This is the selective-receive
// non-reordering property exercised directly.
func TestReceiveMatch_SelectiveReceiveNonReordering(t *testing.T) {
	r, err := StartProcess(func(self *Process) error {
		s, err := ReceiveMatch(self, func(string) bool { return true })
		require.NoError(t, err)
		assert.Equal(t, "x", s)

		for _, want := range []int{1, 2, 3} {
			n, err := ReceiveMatch(self, func(int) bool { return true })
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
		return nil
	})
	require.NoError(t, err)

	Send(r, nil, 1)
	Send(r, nil, 2)
	Send(r, nil, 3)
	Send(r, nil, "x")

	require.NoError(t, Wait(r))
}

// FIFO preservation: messages from one sender arrive at the receiver in send
// order.
func TestSend_FIFOPreservation(t *testing.T) {
	r, err := StartProcess(func(self *Process) error {
		for i := 0; i < 5; i++ {
			n, err := Receive[int](self)
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		Send(r, nil, i)
	}
	require.NoError(t, Wait(r))
}

// send to a dead process is silently discarded; no panic, no error.
func TestSend_ToDeadProcessIsDiscarded(t *testing.T) {
	p, err := StartProcess(func(self *Process) error { return nil })
	require.NoError(t, err)
	require.NoError(t, Wait(p))

	assert.NotPanics(t, func() { Send(p, nil, "too late") })
}

// scenario 1 (spec.md §8): p1 exits normally; p2 monitors p1 afterwards and
// must see exactly Died{p1, nil}.
func TestMonitor_AlreadyDeadDeliversImmediately(t *testing.T) {
	p1, err := StartProcess(func(self *Process) error { return nil })
	require.NoError(t, err)
	require.NoError(t, Wait(p1))

	p2 := CurrentProcess()
	Monitor(p2, p1)

	died, err := Receive[Died](p2)
	require.NoError(t, err)
	assert.True(t, died.Who.Equal(p1))
	assert.NoError(t, died.Err)
}

// exactly-once death notification: a monitor registered before death sees
// exactly one Died.
func TestMonitor_ExactlyOnceDeathNotification(t *testing.T) {
	p2 := CurrentProcess()
	gotReady := make(chan *Process, 1)

	p1, err := StartProcess(func(self *Process) error {
		gotReady <- self
		_, _ = Receive[string](self)
		return nil
	})
	require.NoError(t, err)

	<-gotReady
	Monitor(p2, p1)
	Send(p1, nil, "go")

	died, err := Receive[Died](p2)
	require.NoError(t, err)
	assert.True(t, died.Who.Equal(p1))
	assert.False(t, p1.IsRunning())

	// No second Died is ever enqueued: Monitor only ever fires once per
	// death, so p2's mailbox holds nothing further from p1.
	assert.Equal(t, 0, p2.mbox.Len())
}

// registry consistency: at any quiescent moment the registry contains
// exactly the currently-live Processes.
func TestRegistry_Consistency(t *testing.T) {
	before := RegistrySize()

	done := make(chan struct{})
	p, err := StartProcess(func(self *Process) error {
		<-done
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, before+1, RegistrySize())
	_, ok := globalRegistry.lookup(p.id)
	assert.True(t, ok)

	close(done)
	require.NoError(t, Wait(p))

	assert.Equal(t, before, RegistrySize())
	_, ok = globalRegistry.lookup(p.id)
	assert.False(t, ok)
}

func TestCast_MismatchSurfacesCouldNotCastDynamic(t *testing.T) {
	_, err := Cast[int]("not an int")
	require.Error(t, err)
	var cc *CouldNotCastDynamicError
	assert.ErrorAs(t, err, &cc)
}
