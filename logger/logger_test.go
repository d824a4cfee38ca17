package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

type memSink struct {
	mu     sync.Mutex
	values [][]byte
	closed bool
}

func (s *memSink) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.values = append(s.values, cp)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

func publishValue(t *testing.T, src *endpoint.Source, typ cell.Type, value interface{}) {
	t.Helper()
	if !src.TryWriteDataLock() {
		t.Fatal("could not reserve write lock")
	}
	src.Cell().SetNewData(typ, false, value)
	err := src.NotifyReady(attribute.New(), func(snapshot []*endpoint.Target) {
		for _, tgt := range snapshot {
			src.RegisterPendingTarget(tgt)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRegisterAndNewConstructSinkByClass(t *testing.T) {
	Register("mem-test-1", func() (Sink, error) { return &memSink{}, nil })

	s, err := New("mem-test-1")
	assert.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewUnknownClassFails(t *testing.T) {
	_, err := New("does-not-exist")
	assert.ErrorIs(t, err, ierr.ErrNotBound)
}

func TestNewLoggerRejectsDuplicateName(t *testing.T) {
	d := dispatcher.New()
	sink := &memSink{}

	_, err := NewLogger("dup", d, sink)
	assert.NoError(t, err)

	_, err = NewLogger("dup", d, sink)
	assert.ErrorIs(t, err, ierr.ErrNameConflict)
}

func TestLoggerConsumesPublishedValueIntoSink(t *testing.T) {
	d := dispatcher.New()
	sink := &memSink{}

	l, err := NewLogger("l1", d, sink)
	assert.NoError(t, err)

	src := endpoint.NewSource(cell.New())
	l.Bind(src)

	publishValue(t, src, cell.Int64, int64(42))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.values, 1)
	assert.Equal(t, "42", string(sink.values[0]))
}

func TestLoggerKeysAreMonotonicallyIncreasing(t *testing.T) {
	d := dispatcher.New()
	sink := &memSink{}

	l, err := NewLogger("l2", d, sink)
	assert.NoError(t, err)

	k1 := l.nextKey()
	k2 := l.nextKey()
	assert.Less(t, string(k1), string(k2))
}

func TestLoggerCloseDelegatesToSink(t *testing.T) {
	d := dispatcher.New()
	sink := &memSink{}

	l, err := NewLogger("l3", d, sink)
	assert.NoError(t, err)

	assert.NoError(t, l.Close())
	assert.True(t, sink.closed)
}

func TestFormatScalarKinds(t *testing.T) {
	cases := []struct {
		typ   cell.Type
		value interface{}
		want  string
	}{
		{cell.Int32, int32(-7), "-7"},
		{cell.UInt32, uint32(7), "7"},
		{cell.Int64, int64(-9000), "-9000"},
		{cell.UInt64, uint64(9000), "9000"},
		{cell.Float64, float64(1.5), "1.5"},
		{cell.String, "hello", "hello"},
	}

	for _, c := range cases {
		cl := cell.New()
		cl.SetNewData(c.typ, false, c.value)
		assert.Equal(t, c.want, string(Format(cl)))
	}
}

func TestFormatMatrixRendersRowsAndColumns(t *testing.T) {
	cl := cell.New()
	cl.SetNewData(cell.Matrix, true, [][]float64{{1, 2}, {3}})
	assert.Equal(t, "1,2;3", string(Format(cl)))
}

func TestFormatUnknownKindReturnsNil(t *testing.T) {
	cl := cell.New()
	assert.Nil(t, Format(cl))
}
