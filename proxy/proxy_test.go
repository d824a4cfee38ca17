package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

func doubleInt64(in, out *cell.Cell) error {
	v, err := cell.GetData[int64](in)
	if err != nil {
		return err
	}
	out.SetNewData(cell.Int64, false, v*2)
	return nil
}

func TestProxyConvertsOnUpstreamPublish(t *testing.T) {
	d := dispatcher.New()
	px, err := New("doubler", d, doubleInt64)
	assert.NoError(t, err)

	src := endpoint.NewSource(cell.New())
	px.Bind(src)

	var downstream []*endpoint.Target
	tgt := endpoint.NewTarget()
	d.Bind(px.Out, tgt, func() {
		assert.True(t, px.Out.TryReserveDataForTarget(tgt))
		px.Out.ReadLockDataForTarget(tgt)
		downstream = append(downstream, tgt)
	})

	assert.True(t, src.TryWriteDataLock())
	src.Cell().SetNewData(cell.Int64, false, int64(21))
	err = d.SetOutputDataReady(src, src.Cell().GetAttribute())
	assert.NoError(t, err)

	assert.Len(t, downstream, 1)
	v, err := cell.GetData[int64](px.Out.Cell())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestProxyRejectsDuplicateName(t *testing.T) {
	d := dispatcher.New()
	_, err := New("doubler", d, doubleInt64)
	assert.NoError(t, err)

	_, err = New("doubler", d, doubleInt64)
	assert.ErrorIs(t, err, ierr.ErrNameConflict)
}

func TestProxyCancelStopsConversion(t *testing.T) {
	d := dispatcher.New()
	px, err := New("doubler", d, doubleInt64)
	assert.NoError(t, err)

	src := endpoint.NewSource(cell.New())
	px.Bind(src)
	px.onUpstreamCancel()
	assert.True(t, px.IsCancelling())

	assert.True(t, src.TryWriteDataLock())
	src.Cell().SetNewData(cell.Int64, false, int64(1))
	err = d.SetOutputDataReady(src, src.Cell().GetAttribute())
	assert.NoError(t, err)

	_, typeErr := cell.GetData[int64](px.Out.Cell())
	assert.Error(t, typeErr, "out cell must remain untouched while cancelling")

	px.Reset()
	assert.False(t, px.IsCancelling())
}

func TestProxyDownstreamCancelReachesBoundSource(t *testing.T) {
	d := dispatcher.New()
	px, err := New("doubler", d, doubleInt64)
	assert.NoError(t, err)

	src := endpoint.NewSource(cell.New())
	px.Bind(src)

	var sourceCancelled bool
	src.CancelHook = func() { sourceCancelled = true }

	tgt := endpoint.NewTarget()
	d.Bind(px.Out, tgt, func() {})

	// tgt (standing in for a downstream consumer) initiates cancellation;
	// DispatchSourceCancel is how a target reaches the source bound to it.
	d.DispatchSourceCancel(tgt)
	assert.True(t, px.IsCancelling(), "a target-initiated cancel on the proxy's output must reach the proxy")
	assert.True(t, src.IsCancelling(), "...and must also reach the proxy's own upstream source")
	assert.True(t, sourceCancelled)

	px.Reset()
	assert.False(t, px.IsCancelling())
	assert.False(t, src.IsCancelling())
}
