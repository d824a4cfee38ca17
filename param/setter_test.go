package param

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

func publishOnSource(t *testing.T, s *endpoint.Source, typ cell.Type, value interface{}) {
	t.Helper()
	if !s.TryWriteDataLock() {
		t.Fatal("could not reserve write lock")
	}
	s.Cell().SetNewData(typ, false, value)
	err := s.NotifyReady(attribute.New(), func(snapshot []*endpoint.Target) {
		for _, tgt := range snapshot {
			s.RegisterPendingTarget(tgt)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSetterConsumeStagesParameterValue(t *testing.T) {
	p := New(0, "threshold", "", Int64Kind, NewInt64(0))
	setter := NewSetter(p)

	src := endpoint.NewSource(cell.New())
	endpoint.Bind(src, setter.Target)

	ok, err := setter.TryConsume()
	assert.False(t, ok, "nothing published yet, no pending target to reserve")
	assert.NoError(t, err)

	publishOnSource(t, src, cell.Int64, int64(55))

	ok, err = setter.TryConsume()
	assert.True(t, ok)
	assert.NoError(t, err)

	v := p.Get()
	i, _ := v.Int64()
	assert.Equal(t, int64(55), i)
}

func TestSetterConsumeUnboundFails(t *testing.T) {
	p := New(0, "threshold", "", Int64Kind, NewInt64(0))
	setter := NewSetter(p)

	err := setter.Consume()
	assert.ErrorIs(t, err, ierr.ErrNotBound)
}

func TestSetterConsumeTypeMismatch(t *testing.T) {
	p := New(0, "threshold", "", Int64Kind, NewInt64(0))
	setter := NewSetter(p)

	src := endpoint.NewSource(cell.New())
	endpoint.Bind(src, setter.Target)
	publishOnSource(t, src, cell.Matrix, [][]float64{{1}})

	ok, err := setter.TryConsume()
	assert.True(t, ok)
	assert.ErrorIs(t, err, ierr.ErrTypeMismatch)
}
