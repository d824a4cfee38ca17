package port

import (
	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

// InPort is a Target+SeqTarget bound to a typed cell and a parent
// module (spec.md §3). Trig is true for TrigPorts: a TrigPort accepts
// any upstream type and only uses the attribute, never the value.
type InPort struct {
	Base

	Type   cell.Type
	Vector bool
	Trig   bool

	Target    *endpoint.Target
	SeqTarget *SeqTarget
}

// NewInPort creates an InPort expecting the given type.
func NewInPort(base Base, t cell.Type, vector bool) *InPort {
	return &InPort{
		Base:      base,
		Type:      t,
		Vector:    vector,
		Target:    endpoint.NewTarget(),
		SeqTarget: endpoint.NewTarget(),
	}
}

// NewTrigPort creates a TrigPort: an InPort that accepts any type.
func NewTrigPort(base Base) *InPort {
	p := NewInPort(base, cell.Undefined, false)
	p.Trig = true
	return p
}

// TryCatchSource implements try-catch-source: a single non-blocking
// attempt to reserve and read-lock this port's bound source data.
// Returns false if unbound, or if the reservation fails (not currently
// pending, or already reserved by a previous attempt).
func (p *InPort) TryCatchSource() bool {
	s := p.Target.Source()
	if s == nil {
		return false
	}
	if !s.TryReserveDataForTarget(p.Target) {
		return false
	}
	s.ReadLockDataForTarget(p.Target)
	return true
}

// ReleaseInPort releases this port's claim on its bound source's data,
// whether or not TryCatchSource previously succeeded.
func (p *InPort) ReleaseInPort() {
	s := p.Target.Source()
	if s != nil {
		s.ReleaseTarget(p.Target)
	}
}

// ReadInPortData returns the currently read-locked value, type-checked
// against T.
func ReadInPortData[T any](p *InPort) (value T, err error) {
	s := p.Target.Source()
	if s == nil {
		var zero T
		return zero, ierr.ErrNotBound
	}
	return cell.GetData[T](s.Cell())
}

// ReadInPortDataAttribute returns the attribute snapshot of the
// currently read-locked value.
func (p *InPort) ReadInPortDataAttribute() attribute.Attribute {
	s := p.Target.Source()
	if s == nil {
		return attribute.New()
	}
	return s.Cell().GetAttribute()
}

// IsBound reports whether this port currently has a bound source.
func (p *InPort) IsBound() bool {
	return p.Target.Source() != nil
}
