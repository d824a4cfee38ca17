package module

import "github.com/opticalp/instrumentall/ierr"

// ImmediateCancel runs CancelFunc concurrently with any ongoing process
// (which must observe cancellation through rc.Sleep/rc.Yield/
// rc.IsCancelled), then dispatches cancellation downstream and waits for
// the in-flight task to actually finish (spec.md §4.6 immediate-cancel).
func (m *Module) ImmediateCancel() {
	m.mu.Lock()
	if m.cancelling {
		m.mu.Unlock()
		return
	}
	m.cancelling = true
	current := m.current
	m.mu.Unlock()

	if m.CancelFunc != nil {
		m.CancelFunc()
	}
	if current != nil {
		current.Cancel()
	}
	m.dispatchCancelDownstream()
	m.dispatchCancelUpstream()
	if current != nil {
		current.WaitDone()
	}
}

// LazyCancel runs CancelFunc and cancels the in-flight task, as
// ImmediateCancel does, but waits for that task to finish before
// dispatching cancellation downstream and upstream (spec.md §4.6
// lazy-cancel). The in-flight process is not left to run to completion:
// it sees the cancellation at its next rc.Sleep/rc.Yield/rc.IsCancelled.
func (m *Module) LazyCancel() {
	m.mu.Lock()
	if m.cancelling {
		m.mu.Unlock()
		return
	}
	m.cancelling = true
	current := m.current
	m.mu.Unlock()

	if m.CancelFunc != nil {
		m.CancelFunc()
	}
	if current != nil {
		current.Cancel()
		current.WaitDone()
	}
	m.dispatchCancelDownstream()
	m.dispatchCancelUpstream()
}

func (m *Module) dispatchCancelDownstream() {
	for _, p := range m.outPorts {
		m.dispatcher.DispatchTargetCancel(p.Source)
		m.dispatcher.DispatchTargetCancel(p.SeqSource)
	}
}

// dispatchCancelUpstream tells every producer feeding one of this
// module's in-ports to also cancel (spec.md §7: cancellation propagates
// target→source as well as source→target, until a fixed point).
// Grounded on original_source/src/InPortUser.cpp's cancelSources(), which
// a module calls on all of its own in-ports to reach its own producers.
func (m *Module) dispatchCancelUpstream() {
	for _, p := range m.inPorts {
		m.dispatcher.DispatchSourceCancel(p.Target)
		m.dispatcher.DispatchSourceCancel(p.SeqTarget)
	}
}

// Reset is only valid after cancellation has been observed: it clears
// the cancelling flag, reopens the task queue, and dispatches reset
// downstream (spec.md §4.6 reset).
func (m *Module) Reset() error {
	m.mu.Lock()
	if !m.cancelling {
		m.mu.Unlock()
		return ierr.ErrInvalidState
	}
	m.cancelling = false
	m.queue = nil
	m.dispatching = false
	m.current = nil
	m.mu.Unlock()

	for _, p := range m.outPorts {
		m.dispatcher.DispatchTargetReset(p.Source)
		m.dispatcher.DispatchTargetReset(p.SeqSource)
	}
	for _, p := range m.inPorts {
		m.dispatcher.DispatchSourceReset(p.Target)
		m.dispatcher.DispatchSourceReset(p.SeqTarget)
	}
	return nil
}

// IsCancelling reports whether cancellation has been requested but not
// yet reset.
func (m *Module) IsCancelling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelling
}
