package port

import (
	"sync"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/endpoint"
)

// OutPort is a Source+SeqSource bound to a typed cell and a parent
// module (spec.md §3).
type OutPort struct {
	Base

	Type   cell.Type
	Vector bool

	Source    *endpoint.Source
	SeqSource *SeqSource

	mu       sync.Mutex
	reserved bool
}

// NewOutPort creates an OutPort of the given type, with a fresh cell.
func NewOutPort(base Base, t cell.Type, vector bool) *OutPort {
	return &OutPort{
		Base:      base,
		Type:      t,
		Vector:    vector,
		Source:    endpoint.NewSource(cell.New()),
		SeqSource: endpoint.NewSource(cell.New()),
	}
}

// ReserveOutPort implements reserve-out-port(s): attempts to acquire the
// write lock for this port's cell. Returns false without blocking if the
// source is notifying, has pending targets, or is already reserved.
func (p *OutPort) ReserveOutPort() bool {
	ok := p.Source.TryWriteDataLock()
	if ok {
		p.mu.Lock()
		p.reserved = true
		p.mu.Unlock()
	}
	return ok
}

// GetDataToWrite returns the cell the caller just reserved, for
// set-new-data/write access.
func (p *OutPort) GetDataToWrite() *cell.Cell {
	return p.Source.Cell()
}

// NotifyOutPortReady implements notify-out-port-ready(attr): publishes
// the written value with the given attribute and fans out to bound
// targets via dispatch.
func (p *OutPort) NotifyOutPortReady(attr attribute.Attribute, dispatch func(snapshot []*endpoint.Target)) error {
	err := p.Source.NotifyReady(attr, dispatch)
	p.mu.Lock()
	p.reserved = false
	p.mu.Unlock()
	return err
}

// ReleaseOutPort releases a reservation that will never be published
// (e.g. because process() errored before reaching notify), implementing
// the "release on failure" half of release-all-out-ports.
func (p *OutPort) ReleaseOutPort() {
	p.mu.Lock()
	reserved := p.reserved
	p.reserved = false
	p.mu.Unlock()

	if reserved {
		p.Source.Cell().Unlock()
	}
}

// IsReserved reports whether this port currently holds its write lock
// without having published yet.
func (p *OutPort) IsReserved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reserved
}
