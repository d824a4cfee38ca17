// Package task implements the Module Task named in spec.md §4.4: one
// scheduling unit tied to exactly one module and optionally one
// triggering in-port, carrying its own state machine, merge and cancel
// support.
//
// Grounded on original_source/src/ModuleTask.h/.cpp (RunningStates enum,
// name format "<module>-t<id>", doneEvent, moduleCancel/taskFinished) and
// the teacher's hash-routed goroutine-per-node buffers in task.go, whose
// "at most one active unit of work, ordered" guarantee SPEC_FULL.md keeps
// but re-expresses as a strict one-task-in-flight-per-module queue
// (package module) instead of N parallel hash buckets.
package task

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State enumerates the lifecycle spec.md §4.4 assigns a Module Task.
type State int

const (
	Created State = iota
	Queued
	Preparing
	ApplyingParameters
	RetrievingInDataLocks
	RetrievingOutDataLocks
	Processing
	Done
	Cancelled
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Queued:
		return "queued"
	case Preparing:
		return "preparing"
	case ApplyingParameters:
		return "applyingParameters"
	case RetrievingInDataLocks:
		return "retrievingInDataLocks"
	case RetrievingOutDataLocks:
		return "retrievingOutDataLocks"
	case Processing:
		return "processing"
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var idCounter uint64

func nextID() uint64 { return atomic.AddUint64(&idCounter, 1) }

// Task is one scheduled invocation of a module's process. moduleName and
// triggeringPort are plain data (a name, an opaque key) rather than live
// references to package module/port, so this package stays a leaf: module
// imports task, not the reverse.
type Task struct {
	mu sync.Mutex

	id             uint64
	name           string
	moduleName     string
	triggeringPort interface{}

	state      State
	cancelling bool
	cancelCh   chan struct{}
	cancelOnce sync.Once

	done     chan struct{}
	doneOnce sync.Once
	absorbed []*Task

	progress float64

	// CancelHook, when set, is invoked exactly once, synchronously, from
	// Cancel. Package module does not set it: its ImmediateCancel and
	// LazyCancel call the module's CancelFunc themselves.
	CancelHook func()
}

// New creates a task bound to moduleName, with id and name assigned at
// construction (spec.md §4.4: "name of the form <module>-t<id>").
// triggeringPort is nil for a direct (non-port-triggered) run.
func New(moduleName string, triggeringPort interface{}) *Task {
	id := nextID()
	return &Task{
		id:             id,
		name:           fmt.Sprintf("%s-t%d", moduleName, id),
		moduleName:     moduleName,
		triggeringPort: triggeringPort,
		state:          Created,
		cancelCh:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (t *Task) ID() uint64                  { return t.id }
func (t *Task) Name() string                { return t.name }
func (t *Task) ModuleName() string          { return t.moduleName }
func (t *Task) TriggeringPort() interface{} { return t.triggeringPort }

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// SetRunningState transitions among the Preparing sub-states
// (applyingParameters/retrievingInDataLocks/retrievingOutDataLocks/
// processing). It is a no-op once cancellation has been requested,
// matching ModuleTask::setRunningState's "check if the task is
// cancelling before changing the state".
func (t *Task) SetRunningState(s State) {
	t.mu.Lock()
	if t.cancelling {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()
}

// MarkQueued transitions Created -> Queued, called by the module when it
// enqueues the task onto its own FIFO.
func (t *Task) MarkQueued() { t.setState(Queued) }

// Run executes fn (the module's apply-parameters/lock/process/release
// sequence) and transitions to Done or Cancelled depending on whether
// cancellation was observed, then closes the done channel of this task
// and of every task previously merged into it.
func (t *Task) Run(fn func() error) error {
	t.setState(Preparing)
	err := fn()

	t.mu.Lock()
	cancelling := t.cancelling
	t.mu.Unlock()

	if cancelling {
		t.setState(Cancelled)
	} else {
		t.setState(Done)
	}
	t.signalDone()
	return err
}

func (t *Task) signalDone() {
	t.doneOnce.Do(func() { close(t.done) })

	t.mu.Lock()
	absorbed := t.absorbed
	t.absorbed = nil
	t.mu.Unlock()

	for _, a := range absorbed {
		a.signalDone()
	}
}

// Cancel requests cancellation: it sets the cancelling flag, closes
// cancelCh (waking any RunContext.Sleep in progress) and invokes
// CancelHook once. It does not itself mark the task Cancelled — that
// happens when Run observes the flag and exits.
func (t *Task) Cancel() {
	t.mu.Lock()
	already := t.cancelling
	t.cancelling = true
	t.mu.Unlock()

	if already {
		return
	}
	t.cancelOnce.Do(func() { close(t.cancelCh) })
	if t.CancelHook != nil {
		t.CancelHook()
	}
}

// IsCancelling reports whether Cancel has been requested.
func (t *Task) IsCancelling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelling
}

// Merge absorbs other into t (spec.md §4.4): the caller does not queue
// other separately, and when t finishes, other's done event fires too.
// Both tasks must belong to the same module; the caller (package module)
// is responsible for enforcing that and for only merging into a task
// that has not yet gone past RetrievingInDataLocks.
func (t *Task) Merge(other *Task) {
	t.mu.Lock()
	t.absorbed = append(t.absorbed, other)
	t.mu.Unlock()
}

// WaitDone blocks until the task (or the task it was merged into) has
// finished.
func (t *Task) WaitDone() { <-t.done }

// Done returns the channel closed when the task finishes, for use in a
// select alongside other events.
func (t *Task) Done() <-chan struct{} { return t.done }

// CancelSignal returns the channel closed when Cancel is first called.
func (t *Task) CancelSignal() <-chan struct{} { return t.cancelCh }

// SetProgress records process's self-reported completion fraction.
func (t *Task) SetProgress(f float64) {
	t.mu.Lock()
	t.progress = f
	t.mu.Unlock()
}

// Progress returns the last value reported via SetProgress.
func (t *Task) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}
