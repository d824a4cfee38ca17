// Package endpoint implements the Source/Target protocol shared by every
// data-flow edge in the graph: module ports, parameter getters/setters,
// data proxies and data loggers all embed a Source and/or a Target
// instead of re-implementing reservation and lock handoff.
//
// Grounded on spec.md §4.2 and original_source/src/DataSource.cpp,
// DataTarget.cpp, InPort.cpp, OutPort.cpp. The four-phase protocol
// (reserve write / produce / notify-ready / per-target reservation) is
// implemented exactly as specified; concrete port/proxy/logger/parameter
// types (packages port, proxy, logger, param) add identity, type
// checking and module ownership on top.
package endpoint

import (
	"sync"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/ierr"
)

// Source owns a data cell and the set of currently bound targets
// (spec.md §3 "Endpoints"). Binding raises reference counts on both
// sides; unbinding lowers them.
type Source struct {
	mu sync.Mutex

	c *cell.Cell

	targets  map[*Target]struct{}
	pending  map[*Target]struct{}
	reserved map[*Target]struct{}

	readLockCount int
	notifying     bool
	cancelling    bool

	// CancelHook, when set, is invoked by the dispatcher's cancel fan-out
	// so the owner (a Module, a proxy, ...) observes upstream/downstream
	// cancellation requests. Nil is a legal no-op hook.
	CancelHook func()
	ResetHook  func()

	refCount int32
}

// NewSource creates a Source bound to the given cell, as done at a
// module's output port (or a proxy's/parameter getter's) construction.
func NewSource(c *cell.Cell) *Source {
	return &Source{
		c:        c,
		targets:  make(map[*Target]struct{}),
		pending:  make(map[*Target]struct{}),
		reserved: make(map[*Target]struct{}),
	}
}

// Cell returns the underlying data cell.
func (s *Source) Cell() *cell.Cell { return s.c }

// Targets returns a stable snapshot of currently bound targets. Used by
// the dispatcher's cancel/reset fan-out, which must operate on "the set
// of targets bound at the start of the call" (spec.md §8 testable
// property); NotifyReady takes its own snapshot the same way.
func (s *Source) Targets() []*Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Target, 0, len(s.targets))
	for t := range s.targets {
		out = append(out, t)
	}
	return out
}

// bind registers t as bound to s. Called from Target.bind (reached via
// the package-level Bind); idempotent.
func (s *Source) bind(t *Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[t]; ok {
		return
	}
	s.targets[t] = struct{}{}
	s.refCount++
}

// unbind removes t from the bound set. Idempotent: removing an
// already-absent target is a no-op, matching the Release* idempotence
// contract in spec.md §4.2.
func (s *Source) unbind(t *Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[t]; !ok {
		return
	}
	delete(s.targets, t)
	s.refCount--
}

// RefCount returns the current number of bound targets.
func (s *Source) RefCount() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refCount
}

// TryWriteDataLock implements phase 1 (Reserve write). It fails if the
// source is currently notifying, has any pending targets from a
// still-unwinding publish, or the cell's write lock is already held.
func (s *Source) TryWriteDataLock() bool {
	s.mu.Lock()
	if s.notifying || len(s.pending) > 0 || s.cancelling {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	return s.c.TryWriteLock()
}

// NotifyReady implements phase 3 (Notify-ready): sets the attribute,
// releases the write lock, marks the source as notifying (refusing new
// reservations), takes a stable snapshot of bound targets and hands it
// to dispatch (typically the Dispatcher's set-output-data-ready fan-out),
// then clears the notifying flag.
//
// If cancellation is observed before the snapshot is taken, the write
// lock is released, no targets are notified, and ErrExecutionAborted is
// returned and surfaces to the caller, per spec.md §4.2/§7.
func (s *Source) NotifyReady(attr attribute.Attribute, dispatch func(snapshot []*Target)) error {
	s.mu.Lock()
	if s.cancelling {
		s.mu.Unlock()
		s.c.Unlock()
		return ierr.ErrExecutionAborted
	}

	s.notifying = true
	snapshot := make([]*Target, 0, len(s.targets))
	for t := range s.targets {
		snapshot = append(snapshot, t)
	}
	s.mu.Unlock()

	s.c.SetAttribute(attr)
	s.c.ClearExpired()
	s.c.Unlock()

	if dispatch != nil {
		dispatch(snapshot)
	}

	s.mu.Lock()
	s.notifying = false
	s.mu.Unlock()

	return nil
}

// RegisterPendingTarget marks t as awaiting reservation on this source
// (phase 4, step 1). Called by the dispatcher once per bound target
// before scheduling that target's reservation work.
func (s *Source) RegisterPendingTarget(t *Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[t] = struct{}{}
}

// TryReserveDataForTarget returns true exactly when t is in the pending
// set and not already reserved (spec.md §4.2 contract).
func (s *Source) TryReserveDataForTarget(t *Target) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, isPending := s.pending[t]; !isPending {
		return false
	}
	if _, isReserved := s.reserved[t]; isReserved {
		return false
	}
	s.reserved[t] = struct{}{}
	return true
}

// ReadLockDataForTarget acquires the shared read lock on behalf of t.
// Requires a prior successful TryReserveDataForTarget; panics otherwise
// (spec.md §4.2: "panics otherwise"). The cell is read-locked once, on
// the first target's call, and released once, on the last target's
// ReleaseTarget call.
func (s *Source) ReadLockDataForTarget(t *Target) {
	s.mu.Lock()
	if _, reserved := s.reserved[t]; !reserved {
		s.mu.Unlock()
		panic("endpoint: ReadLockDataForTarget called without a prior reservation")
	}
	first := s.readLockCount == 0
	s.readLockCount++
	s.mu.Unlock()

	if first {
		s.c.ReadLock()
	}
}

// ReleaseTarget releases t's claim on this source's data, whether or not
// the read lock was ever acquired for it. Removal from the
// pending/reserved sets is unconditional; the cell's read lock is
// released iff t was in the (locked) reserved set — this single method
// covers both a normal release-after-read and
// target-release-read-on-failure, both being idempotent w.r.t. repeated
// calls.
func (s *Source) ReleaseTarget(t *Target) {
	s.mu.Lock()
	_, wasReserved := s.reserved[t]
	delete(s.pending, t)
	delete(s.reserved, t)

	var releaseCell bool
	if wasReserved {
		s.readLockCount--
		releaseCell = s.readLockCount == 0
	}
	s.mu.Unlock()

	if wasReserved && releaseCell {
		s.c.RUnlock()
	}
}

// SetCancelling marks the source cancelling (or clears it on reset).
// While cancelling, TryWriteDataLock returns false and NotifyReady
// releases the write lock and returns ErrExecutionAborted.
// TryReserveDataForTarget and ReadLockDataForTarget do not check the
// flag.
func (s *Source) SetCancelling(v bool) {
	s.mu.Lock()
	s.cancelling = v
	s.mu.Unlock()
}

// IsCancelling reports the current cancelling flag.
func (s *Source) IsCancelling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelling
}
