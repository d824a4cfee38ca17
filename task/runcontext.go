package task

import (
	"runtime"
	"time"
)

// RunContext replaces the thread-local "current task" pointer
// original_source keeps via Thread::current() lookups: it is handed
// explicitly to a module's process(startCond) so user code can probe
// cancellation and report progress without a global registry.
type RunContext struct {
	t *Task
}

// NewRunContext wraps t for handoff to a module's process call.
func NewRunContext(t *Task) *RunContext { return &RunContext{t: t} }

// Task returns the underlying task.
func (rc *RunContext) Task() *Task { return rc.t }

// Sleep blocks for d or until the task is cancelled, whichever comes
// first, and reports whether it woke due to cancellation (spec.md §4.6:
// "sleep(ms) (returns true on cancellation)").
func (rc *RunContext) Sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return rc.t.IsCancelling()
	case <-rc.t.CancelSignal():
		return true
	}
}

// Yield gives other goroutines a chance to run and reports whether the
// task has been cancelled meanwhile (spec.md §4.6: "yield() (same)").
func (rc *RunContext) Yield() bool {
	runtime.Gosched()
	return rc.t.IsCancelling()
}

// IsCancelled reports the task's current cancelling flag.
func (rc *RunContext) IsCancelled() bool { return rc.t.IsCancelling() }

// SetProgress records process's self-reported completion fraction.
func (rc *RunContext) SetProgress(f float64) { rc.t.SetProgress(f) }

// TriggeringPort returns the opaque in-port key the owning task was
// created with, or nil for a direct run.
func (rc *RunContext) TriggeringPort() interface{} { return rc.t.TriggeringPort() }
