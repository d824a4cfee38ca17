package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAssignsNameAndCreatedState(t *testing.T) {
	tk := New("mod1", nil)
	assert.Equal(t, "mod1", tk.ModuleName())
	assert.Equal(t, Created, tk.State())
	assert.Contains(t, tk.Name(), "mod1-t")
}

func TestRunTransitionsToDoneWithoutCancellation(t *testing.T) {
	tk := New("mod1", nil)
	err := tk.Run(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, Done, tk.State())

	select {
	case <-tk.Done():
	default:
		t.Fatal("Done channel must be closed once Run returns")
	}
}

func TestRunTransitionsToCancelledWhenCancelled(t *testing.T) {
	tk := New("mod1", nil)
	tk.Cancel()
	err := tk.Run(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, Cancelled, tk.State())
}

func TestSetRunningStateNoOpOnceCancelling(t *testing.T) {
	tk := New("mod1", nil)
	tk.Cancel()
	tk.SetRunningState(Processing)
	assert.NotEqual(t, Processing, tk.State())
}

func TestCancelHookRunsOnce(t *testing.T) {
	tk := New("mod1", nil)
	var calls int
	tk.CancelHook = func() { calls++ }

	tk.Cancel()
	tk.Cancel()
	assert.Equal(t, 1, calls)
}

func TestMergeSignalsAbsorbedTaskOnDone(t *testing.T) {
	main := New("mod1", nil)
	absorbed := New("mod1", nil)
	main.Merge(absorbed)

	done := make(chan struct{})
	go func() {
		absorbed.WaitDone()
		close(done)
	}()

	err := main.Run(func() error { return nil })
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("absorbed task's Done channel was never signalled")
	}
}

func TestProgressRoundTrip(t *testing.T) {
	tk := New("mod1", nil)
	tk.SetProgress(0.5)
	assert.Equal(t, 0.5, tk.Progress())
}
