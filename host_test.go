package nqe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WithHost lets a caller substitute a Host; Kill/Deliver against a Process
// started through a custom Host still reach it, observable on the fake's
// delivered channel instead of racing on shared state.
func TestWithHost_DeliversThroughSubstitutedHost(t *testing.T) {
	fh := newFakeHost()
	p, err := StartProcess(blockForever, WithHost(fh))
	require.NoError(t, err)

	Kill(p, assert.AnError)

	select {
	case d := <-fh.delivered:
		assert.True(t, d.target.Equal(p))
	case <-time.After(time.Second):
		t.Fatal("fakeHost never observed the delivery")
	}

	require.Error(t, Wait(p))
}

func TestAsyncDelayed_RunsAfterDelay(t *testing.T) {
	caller := CurrentProcess()
	fired := make(chan struct{})

	AsyncDelayed(caller, 10*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("AsyncDelayed never ran f")
	}
}

func TestAsyncDelayed_PanicKillsCaller(t *testing.T) {
	p, err := StartProcess(blockForever)
	require.NoError(t, err)

	AsyncDelayed(p, time.Millisecond, func() {
		panic("boom")
	})

	err = Wait(p)
	require.Error(t, err)
	var pv errPanicValue
	assert.ErrorAs(t, err, &pv)
}

func TestCurrentProcess_StableWithinOneGoroutine(t *testing.T) {
	a := CurrentProcess()
	b := CurrentProcess()
	assert.True(t, a.Equal(b))
}
