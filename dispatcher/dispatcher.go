// Package dispatcher implements the process-wide bind/unbind registry and
// the fan-out operations named in spec.md §4.4: set-output-data-ready,
// dispatch-target-cancel/wait-cancelled, dispatch-target-reset.
//
// Grounded on original_source/src/Dispatcher.cpp (the single registry of
// weak handles to in/out ports, keyed for O(1) teardown) and the teacher's
// topology.go (addNode/getNode/walk: a stable-iteration registry of typed
// nodes) generalized from Processor nodes to endpoint.Source/Target pairs.
// cespare/xxhash derives a stable numeric handle id from a module+port name
// pair, played the same role topology.go's node ids play for the teacher's
// stable graph walk.
package dispatcher

import (
	"sync"

	"github.com/cespare/xxhash"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/endpoint"
)

// HandleID returns a stable numeric id for a module+port name pair, used
// to key the port registries below. Two ports with the same module and
// port name collide deliberately: a module cannot have two ports sharing
// a name, so collision here signals a name conflict to the caller.
func HandleID(moduleName, portName string) uint64 {
	key := make([]byte, 0, len(moduleName)+len(portName)+1)
	key = append(key, moduleName...)
	key = append(key, 0)
	key = append(key, portName...)
	return xxhash.Sum64(key)
}

// Dispatcher is the single process-wide registry binding Sources to
// Targets and fanning out readiness/cancel/reset notifications between
// them. A graph built by the engine owns exactly one Dispatcher.
type Dispatcher struct {
	regMu sync.RWMutex
	ports map[uint64]struct{} // registered handle ids, for name-conflict detection

	readyMu sync.Mutex
	ready   map[*endpoint.Target]func()
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		ports: make(map[uint64]struct{}),
		ready: make(map[*endpoint.Target]func()),
	}
}

// RegisterHandle reserves a handle id for a newly created port, proxy
// endpoint, parameter endpoint or logger target. Returns false if the id
// is already taken (a name conflict within the owning module).
func (d *Dispatcher) RegisterHandle(id uint64) bool {
	d.regMu.Lock()
	defer d.regMu.Unlock()
	if _, exists := d.ports[id]; exists {
		return false
	}
	d.ports[id] = struct{}{}
	return true
}

// RemoveHandle releases a previously registered handle id.
func (d *Dispatcher) RemoveHandle(id uint64) {
	d.regMu.Lock()
	defer d.regMu.Unlock()
	delete(d.ports, id)
}

// Bind connects source to target and records onReady as the callback the
// set-output-data-ready fan-out invokes once target has been registered
// pending and is ready to attempt its own reservation. onReady is what
// gives each target kind (in-port, proxy, logger, parameter setter) its
// own consumption behaviour without a type switch: the module package
// passes a callback that enqueues a module task, the logger package one
// that writes synchronously, and so on.
func (d *Dispatcher) Bind(s *endpoint.Source, t *endpoint.Target, onReady func()) {
	d.readyMu.Lock()
	d.ready[t] = onReady
	d.readyMu.Unlock()

	endpoint.Bind(s, t)
}

// Unbind disconnects target from its current source and forgets its
// readiness callback.
func (d *Dispatcher) Unbind(t *endpoint.Target) {
	endpoint.Unbind(t)

	d.readyMu.Lock()
	delete(d.ready, t)
	d.readyMu.Unlock()
}

// UnbindSource disconnects every target currently bound to source.
func (d *Dispatcher) UnbindSource(s *endpoint.Source) {
	for _, t := range s.Targets() {
		d.Unbind(t)
	}
}

// SeqBind/SeqUnbind wire the parallel sequence edge. They carry no
// readiness callback: the sequence edge only ever ferries attribute
// bookkeeping, consumed passively alongside the data edge by whichever
// target reads it.
func (d *Dispatcher) SeqBind(s *endpoint.Source, t *endpoint.Target) { endpoint.Bind(s, t) }
func (d *Dispatcher) SeqUnbind(t *endpoint.Target)                   { endpoint.Unbind(t) }

// SetOutputDataReady implements spec.md §4.4's set-output-data-ready: it
// publishes attr on s (phase 3, NotifyReady) then dispatches to the
// resulting target snapshot.
func (d *Dispatcher) SetOutputDataReady(s *endpoint.Source, attr attribute.Attribute) error {
	return s.NotifyReady(attr, func(snapshot []*endpoint.Target) {
		d.Dispatch(s, snapshot)
	})
}

// Dispatch registers each target in snapshot as pending on s and invokes
// its readiness callback. A callback that panics (e.g. a module rejecting
// the task because it is shutting down) only releases that one target's
// claim on s — it does not abort the fan-out to the remaining targets.
// Exposed so a port that publishes outside of SetOutputDataReady (e.g.
// module.Module.NotifyOutPortReady, which must flip its own reservation
// bookkeeping in the same call as NotifyReady) can still route through
// the shared fan-out logic instead of duplicating it.
func (d *Dispatcher) Dispatch(s *endpoint.Source, snapshot []*endpoint.Target) {
	for _, t := range snapshot {
		s.RegisterPendingTarget(t)

		d.readyMu.Lock()
		fn := d.ready[t]
		d.readyMu.Unlock()
		if fn == nil {
			continue
		}

		d.runReady(s, t, fn)
	}
}

// runReady invokes a single target's readiness callback, releasing its
// claim on s if the callback panics instead of completing its own
// reserve/read/release sequence.
func (d *Dispatcher) runReady(s *endpoint.Source, t *endpoint.Target, fn func()) {
	defer func() {
		if recover() != nil {
			s.ReleaseTarget(t)
		}
	}()
	fn()
}

// DispatchTargetCancel marks every target currently bound to s as
// cancelling and invokes each one's CancelHook, implementing the
// cancel-propagates-downstream half of spec.md §7.
func (d *Dispatcher) DispatchTargetCancel(s *endpoint.Source) {
	for _, t := range s.Targets() {
		t.SetCancelling(true)
		if t.CancelHook != nil {
			t.CancelHook()
		}
	}
}

// DispatchTargetWaitCancelled invokes wait once per target currently
// bound to s, letting the caller block until each target has actually
// observed and acted on cancellation (as opposed to DispatchTargetCancel,
// which only raises the flag and fires the hook).
func (d *Dispatcher) DispatchTargetWaitCancelled(s *endpoint.Source, wait func(*endpoint.Target)) {
	if wait == nil {
		return
	}
	for _, t := range s.Targets() {
		wait(t)
	}
}

// DispatchTargetReset clears the cancelling flag on every target bound to
// s and invokes each one's ResetHook, undoing DispatchTargetCancel once a
// graph's run has been fully torn down.
func (d *Dispatcher) DispatchTargetReset(s *endpoint.Source) {
	for _, t := range s.Targets() {
		t.SetCancelling(false)
		if t.ResetHook != nil {
			t.ResetHook()
		}
	}
}

// DispatchSourceCancel marks t's bound source as cancelling and invokes
// its CancelHook, implementing the cancel-propagates-upstream half of
// spec.md §7 (target→source, mirroring DispatchTargetCancel's
// source→target half). A no-op if t is currently unbound.
func (d *Dispatcher) DispatchSourceCancel(t *endpoint.Target) {
	s := t.Source()
	if s == nil {
		return
	}
	s.SetCancelling(true)
	if s.CancelHook != nil {
		s.CancelHook()
	}
}

// DispatchSourceReset clears the cancelling flag on t's bound source and
// invokes its ResetHook, undoing DispatchSourceCancel. A no-op if t is
// currently unbound.
func (d *Dispatcher) DispatchSourceReset(t *endpoint.Target) {
	s := t.Source()
	if s == nil {
		return
	}
	s.SetCancelling(false)
	if s.ResetHook != nil {
		s.ResetHook()
	}
}
