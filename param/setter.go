package param

import (
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

// Setter is a Target that, on an upstream publish, overwrites the
// parameter (spec.md §4.7). The caller is responsible for the usual
// reserve/read-lock dance (TryCatchSource-equivalent) before calling
// Consume; Setter only does the type-checked copy into the Parameter.
type Setter struct {
	*endpoint.Target
	p *Parameter
}

// NewSetter creates a setter bound to p.
func NewSetter(p *Parameter) *Setter {
	return &Setter{Target: endpoint.NewTarget(), p: p}
}

// Consume reads the bound source's currently read-locked value and
// stages it as the parameter's new pending value.
func (s *Setter) Consume() error {
	src := s.Target.Source()
	if src == nil {
		return ierr.ErrNotBound
	}

	c := src.Cell()
	t, _ := c.Type()
	switch t {
	case cell.Int64:
		v, err := cell.GetData[int64](c)
		if err != nil {
			return err
		}
		s.p.Set(NewInt64(v))
	case cell.Float64:
		v, err := cell.GetData[float64](c)
		if err != nil {
			return err
		}
		s.p.Set(NewFloat64(v))
	case cell.String:
		v, err := cell.GetData[string](c)
		if err != nil {
			return err
		}
		s.p.Set(NewString(v))
	default:
		return ierr.ErrTypeMismatch
	}
	return nil
}

// TryConsume performs the full reserve/read-lock/consume/release
// sequence against the setter's bound source. It reports false (with a
// nil error) if the reservation could not be taken — e.g. another
// consumer already claimed this round's publish.
func (s *Setter) TryConsume() (bool, error) {
	src := s.Target.Source()
	if src == nil {
		return false, ierr.ErrNotBound
	}
	if !src.TryReserveDataForTarget(s.Target) {
		return false, nil
	}
	src.ReadLockDataForTarget(s.Target)
	err := s.Consume()
	src.ReleaseTarget(s.Target)
	return true, err
}
