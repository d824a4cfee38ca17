// Package logger implements the Data Logger named in spec.md §4.9: a
// Target that formats received values into a pluggable sink, with sinks
// registered via a class name in a process-wide factory. Format covers
// the scalar numeric kinds and strings; vector values are formatted only
// when their payload is [][]float64 (see Format).
//
// Grounded on the teacher's store.Store interface (Get/Set/Delete/
// Range/RangePrefix against a key-value backend) and its Init/Close/
// Remove lifecycle; Logger plays the role the teacher's node.go
// Processor played for a "store" sink, but the sink contract itself
// (package Sink below) and the two concrete sinks (mosssink,
// leveldbsink) are adapted almost directly from store/moss/moss.go and
// store/leveldb/leveldb.go.
package logger

import (
	"encoding/binary"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

// Sink is a pluggable key/value backend a Logger formats values into.
// mosssink and leveldbsink are the two concrete implementations carried
// from the teacher's store package.
type Sink interface {
	Set(key, value []byte) error
	Close() error
}

// Factory constructs a Sink, used by the process-wide class registry.
type Factory func() (Sink, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register adds class to the process-wide sink factory registry. Called
// from mosssink/leveldbsink's init, and by any other sink implementation
// a deployment wants to add.
func Register(class string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[class] = f
}

// New looks up class in the registry and constructs a fresh Sink.
func New(class string) (Sink, error) {
	factoriesMu.RLock()
	f, ok := factories[class]
	factoriesMu.RUnlock()
	if !ok {
		return nil, ierr.ErrNotBound
	}
	return f()
}

// Logger is a Target that formats every value it receives and writes it
// to Sink under a monotonically increasing key.
type Logger struct {
	Name string
	In   *endpoint.Target

	dispatcher *dispatcher.Dispatcher
	sink       Sink
	seq        uint64
}

// NewLogger creates a Logger named name, writing to sink, registered
// with d under the same handle-id scheme ports use for name-conflict
// detection.
func NewLogger(name string, d *dispatcher.Dispatcher, sink Sink) (*Logger, error) {
	id := dispatcher.HandleID("logger", name)
	if !d.RegisterHandle(id) {
		return nil, ierr.ErrNameConflict
	}

	return &Logger{
		Name:       name,
		In:         endpoint.NewTarget(),
		dispatcher: d,
		sink:       sink,
	}, nil
}

// Bind connects src to this logger's input.
func (l *Logger) Bind(src *endpoint.Source) {
	l.dispatcher.Bind(src, l.In, l.consume)
}

func (l *Logger) consume() {
	src := l.In.Source()
	if src == nil {
		return
	}
	if !src.TryReserveDataForTarget(l.In) {
		return
	}
	src.ReadLockDataForTarget(l.In)
	defer src.ReleaseTarget(l.In)

	value := Format(src.Cell())
	_ = l.sink.Set(l.nextKey(), value)
}

func (l *Logger) nextKey() []byte {
	n := atomic.AddUint64(&l.seq, 1)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

// Close releases the underlying sink's resources.
func (l *Logger) Close() error { return l.sink.Close() }

// Format renders a cell's current value as bytes. Scalars of kind Int32,
// UInt32, Int64, UInt64, Float32, Float64 and String are formatted as
// text. A vector value is formatted only when its payload is a
// [][]float64 (rows joined with ';', columns with ','); any other vector
// payload, and a non-vector Matrix or Undefined value, yields nil.
func Format(c *cell.Cell) []byte {
	t, vector := c.Type()

	if vector {
		if fs, err := cell.GetData[[][]float64](c); err == nil {
			return formatMatrix(fs)
		}
		return nil
	}

	switch t {
	case cell.Int32:
		v, _ := cell.GetData[int32](c)
		return []byte(strconv.FormatInt(int64(v), 10))
	case cell.UInt32:
		v, _ := cell.GetData[uint32](c)
		return []byte(strconv.FormatUint(uint64(v), 10))
	case cell.Int64:
		v, _ := cell.GetData[int64](c)
		return []byte(strconv.FormatInt(v, 10))
	case cell.UInt64:
		v, _ := cell.GetData[uint64](c)
		return []byte(strconv.FormatUint(v, 10))
	case cell.Float32:
		v, _ := cell.GetData[float32](c)
		return []byte(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case cell.Float64:
		v, _ := cell.GetData[float64](c)
		return []byte(strconv.FormatFloat(v, 'g', -1, 64))
	case cell.String:
		v, _ := cell.GetData[string](c)
		return []byte(v)
	default:
		return nil
	}
}

func formatMatrix(rows [][]float64) []byte {
	var out []byte
	for i, row := range rows {
		if i > 0 {
			out = append(out, ';')
		}
		for j, f := range row {
			if j > 0 {
				out = append(out, ',')
			}
			out = strconv.AppendFloat(out, f, 'g', -1, 64)
		}
	}
	return out
}
