package param

import (
	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

// Getter is a Source that, when its owning module executes, publishes
// the current parameter value as a typed data item (spec.md §4.7).
type Getter struct {
	*endpoint.Source
	p *Parameter
}

// NewGetter creates a getter bound to p, with its own fresh cell.
func NewGetter(p *Parameter) *Getter {
	return &Getter{
		Source: endpoint.NewSource(cell.New()),
		p:      p,
	}
}

// Publish writes the parameter's current value into the getter's cell
// and notifies bound targets, following the same
// reserve/write/notify sequence an OutPort uses.
func (g *Getter) Publish(attr attribute.Attribute, dispatch func([]*endpoint.Target)) error {
	if !g.Source.TryWriteDataLock() {
		return ierr.ErrInvalidState
	}

	v := g.p.Get()
	c := g.Source.Cell()
	switch v.Kind() {
	case Int64Kind:
		iv, _ := v.Int64()
		c.SetNewData(cell.Int64, false, iv)
	case Float64Kind:
		fv, _ := v.Float64()
		c.SetNewData(cell.Float64, false, fv)
	case StringKind:
		sv, _ := v.String()
		c.SetNewData(cell.String, false, sv)
	}

	return g.Source.NotifyReady(attr, dispatch)
}
