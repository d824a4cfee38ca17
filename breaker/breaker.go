// Package breaker implements the Breaker / Duplicated Source named in
// spec.md §4.10. Breaker remembers edges it cut and restores them on
// Close. DuplicatedSource wraps a source and substitutes for it in the
// graph for the lifetime of a hold, so a UI can publish fabricated
// values to downstream targets without disturbing the real producer.
// Both obey the standard Source/Target protocol.
//
// Grounded on the dispatcher's bind/unbind pair (the only primitive
// needed to "cut" and "restore" an edge) and endpoint's Source/Target,
// whose protocol both types reuse unchanged — there is nothing
// domain-specific about cutting or substituting an edge, so no new
// locking discipline is introduced here.
package breaker

import (
	"sync"

	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
)

// edge records one cut connection, enough to restore it later.
type edge struct {
	source *endpoint.Source
	target *endpoint.Target
}

// Breaker cuts one or more source/target edges and restores them when
// Close is called, exactly once per cut edge.
type Breaker struct {
	d *dispatcher.Dispatcher

	mu  sync.Mutex
	cut []edge
}

// New creates a Breaker operating against d's bind/unbind registry.
func New(d *dispatcher.Dispatcher) *Breaker {
	return &Breaker{d: d}
}

// Cut unbinds target from its current source, remembering the edge so
// Close can restore it. A no-op (and not remembered) if target is
// already unbound.
func (b *Breaker) Cut(target *endpoint.Target) {
	source := target.Source()
	if source == nil {
		return
	}

	b.d.Unbind(target)

	b.mu.Lock()
	b.cut = append(b.cut, edge{source: source, target: target})
	b.mu.Unlock()
}

// Close restores every edge this Breaker cut, in reverse order, via a
// plain onReady-less rebind — callers that need the readiness callback
// restored too should re-bind through the owning module/proxy/logger
// instead of through Breaker.
func (b *Breaker) Close() {
	b.mu.Lock()
	cut := b.cut
	b.cut = nil
	b.mu.Unlock()

	for i := len(cut) - 1; i >= 0; i-- {
		endpoint.Bind(cut[i].source, cut[i].target)
	}
}
