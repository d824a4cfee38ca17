// Package proxy implements the Data Proxy named in spec.md §4.8: a
// synchronous target+source converter. run-target reserves the input,
// read-locks it, reserves its own write lock, calls the concrete
// Converter, and publishes. Cancellation follows the same contract as a
// module.
//
// Grounded on original_source's proxy-style converters sitting between
// two typed ports and the teacher's Node/Processor composition (a
// Converter here plays the role the teacher's Processor interface
// plays: the one piece of user code a generic wrapper calls).
package proxy

import (
	"sync"

	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
	"github.com/opticalp/instrumentall/param"
)

// Converter is the concrete proxy's user-supplied conversion: read in
// (already read-locked), write the result into out (already
// write-locked).
type Converter func(in *cell.Cell, out *cell.Cell) error

// Proxy is a Target (In) + Source (Out) pair running Convert
// synchronously whenever its input becomes ready.
type Proxy struct {
	Name string

	In  *endpoint.Target
	Out *endpoint.Source

	dispatcher *dispatcher.Dispatcher
	convert    Converter
	params     *param.Set

	mu         sync.Mutex
	cancelling bool
}

// New creates a proxy with a fresh output cell, registered with d under
// name (for name-conflict detection, the same handle-id scheme ports
// use).
func New(name string, d *dispatcher.Dispatcher, convert Converter) (*Proxy, error) {
	id := dispatcher.HandleID("proxy", name)
	if !d.RegisterHandle(id) {
		return nil, ierr.ErrNameConflict
	}

	p := &Proxy{
		Name:       name,
		In:         endpoint.NewTarget(),
		Out:        endpoint.NewSource(cell.New()),
		dispatcher: d,
		convert:    convert,
		params:     param.NewSet(true),
	}
	p.In.CancelHook = p.onUpstreamCancel
	p.Out.CancelHook = p.onDownstreamCancel
	return p, nil
}

// Params returns the proxy's parameter set (spec.md §4.8: "Parameters
// are supported").
func (p *Proxy) Params() *param.Set { return p.params }

// Bind connects src to this proxy's input, wiring run-target as the
// dispatcher's readiness callback.
func (p *Proxy) Bind(src *endpoint.Source) {
	p.dispatcher.Bind(src, p.In, p.runTarget)
}

// runTarget implements spec.md §4.8's run-target: reserve the input,
// read-lock it, reserve the proxy's own write lock, call Convert, and
// publish.
func (p *Proxy) runTarget() {
	src := p.In.Source()
	if src == nil {
		return
	}

	if !src.TryReserveDataForTarget(p.In) {
		return
	}
	src.ReadLockDataForTarget(p.In)
	defer src.ReleaseTarget(p.In)

	p.mu.Lock()
	cancelling := p.cancelling
	p.mu.Unlock()
	if cancelling {
		return
	}

	p.params.TryApplyParameters()

	if !p.Out.TryWriteDataLock() {
		return
	}

	if err := p.convert(src.Cell(), p.Out.Cell()); err != nil {
		p.Out.Cell().Unlock()
		return
	}

	attr := src.Cell().GetAttribute()
	_ = p.dispatcher.SetOutputDataReady(p.Out, attr)
}

// onUpstreamCancel runs when this proxy's input is told to cancel by its
// bound source, cascading the cancellation to the proxy's own output
// (spec.md §7 downstream propagation).
func (p *Proxy) onUpstreamCancel() {
	p.mu.Lock()
	already := p.cancelling
	p.cancelling = true
	p.mu.Unlock()
	if already {
		return
	}
	p.dispatcher.DispatchTargetCancel(p.Out)
}

// onDownstreamCancel runs when this proxy's output is told to cancel by
// a bound target, cascading the cancellation to whatever feeds the
// proxy's input (spec.md §7 upstream propagation, mirroring
// onUpstreamCancel's opposite direction).
func (p *Proxy) onDownstreamCancel() {
	p.mu.Lock()
	already := p.cancelling
	p.cancelling = true
	p.mu.Unlock()
	if already {
		return
	}
	p.dispatcher.DispatchSourceCancel(p.In)
}

// Reset clears the cancelling flag and re-opens the proxy to new
// conversions.
func (p *Proxy) Reset() {
	p.mu.Lock()
	p.cancelling = false
	p.mu.Unlock()
	p.dispatcher.DispatchTargetReset(p.Out)
	p.dispatcher.DispatchSourceReset(p.In)
}

// IsCancelling reports the proxy's current cancelling flag.
func (p *Proxy) IsCancelling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelling
}
