package port

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

func TestInOutPortRoundTrip(t *testing.T) {
	out := NewOutPort(Base{Name: "out", ModuleName: "m1"}, cell.Int64, false)
	in := NewInPort(Base{Name: "in", ModuleName: "m2"}, cell.Int64, false)

	endpoint.Bind(out.Source, in.Target)
	assert.True(t, in.IsBound())

	assert.True(t, out.ReserveOutPort())
	assert.True(t, out.IsReserved())
	out.GetDataToWrite().SetNewData(cell.Int64, false, int64(99))

	var snapshot []*endpoint.Target
	err := out.NotifyOutPortReady(attribute.New(), func(s []*endpoint.Target) {
		snapshot = s
		for _, tgt := range s {
			out.Source.RegisterPendingTarget(tgt)
		}
	})
	assert.NoError(t, err)
	assert.False(t, out.IsReserved())
	assert.Len(t, snapshot, 1)

	for _, tgt := range snapshot {
		assert.Same(t, in.Target, tgt)
	}
	assert.True(t, in.TryCatchSource())
	v, err := ReadInPortData[int64](in)
	assert.NoError(t, err)
	assert.Equal(t, int64(99), v)
	in.ReleaseInPort()
}

func TestInPortUnboundReadFails(t *testing.T) {
	in := NewInPort(Base{Name: "in", ModuleName: "m"}, cell.Int64, false)
	assert.False(t, in.IsBound())
	assert.False(t, in.TryCatchSource())

	_, err := ReadInPortData[int64](in)
	assert.ErrorIs(t, err, ierr.ErrNotBound)
}

func TestTrigPortAcceptsAnyType(t *testing.T) {
	p := NewTrigPort(Base{Name: "trig", ModuleName: "m"})
	assert.True(t, p.Trig)
	assert.Equal(t, cell.Undefined, p.Type)
}

func TestOutPortReleaseOnFailure(t *testing.T) {
	out := NewOutPort(Base{Name: "out", ModuleName: "m"}, cell.Int64, false)
	assert.True(t, out.ReserveOutPort())
	out.ReleaseOutPort()
	assert.False(t, out.IsReserved())
	assert.True(t, out.ReserveOutPort(), "the write lock must be free again after release")
}
