// Package cell implements the Typed Data Cell (spec.md §3/§4.1): one
// heterogeneously-typed value protected by a reader/writer lock, with an
// attribute snapshot copied in at each publish. Grounded on
// original_source/src/DataSource.h's expiry/parent-port fields folded
// together with the value storage spec.md describes as a single unit,
// and on the teacher's sync.RWMutex-per-resource discipline.
package cell

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/ierr"
)

// Cell owns one heterogeneously-typed value with a reader/writer lock and
// an attribute record (spec.md §3).
type Cell struct {
	mu sync.RWMutex

	typ    Type
	vector bool
	value  interface{}

	attr    attribute.Attribute
	expired int32
}

// New creates an empty, Undefined cell, as done at the owning source's
// construction (spec.md §4.1 lifecycle).
func New() *Cell {
	return &Cell{attr: attribute.New()}
}

// TryWriteLock attempts to acquire the write lock without blocking.
func (c *Cell) TryWriteLock() (ok bool) {
	return c.mu.TryLock()
}

// WriteLock acquires the write lock, blocking until available.
func (c *Cell) WriteLock() {
	c.mu.Lock()
}

// TryReadLock attempts to acquire a read lock without blocking.
func (c *Cell) TryReadLock() (ok bool) {
	return c.mu.TryRLock()
}

// ReadLock acquires a read lock, blocking until available.
func (c *Cell) ReadLock() {
	c.mu.RLock()
}

// Unlock releases whichever lock kind the caller is holding. Cell does
// not track which was taken (that bookkeeping belongs to the Source/
// Target protocol in package endpoint); callers must call the matching
// unlock for the lock they acquired.
func (c *Cell) Unlock() {
	c.mu.Unlock()
}

// RUnlock releases a previously acquired read lock.
func (c *Cell) RUnlock() {
	c.mu.RUnlock()
}

// SetNewData changes the stored type and reallocates storage. Allowed
// only while the caller holds the write lock (I1); Cell does not itself
// verify lock ownership (Go's sync.RWMutex can't report an owner) so
// misuse is a caller bug, matching the original's unchecked invariant.
func (c *Cell) SetNewData(t Type, vector bool, value interface{}) {
	c.typ = t
	c.vector = vector
	c.value = value
}

// GetData returns the stored value type-checked against T. It fails with
// ErrTypeMismatch when the recorded type/container shape does not match.
func GetData[T any](c *Cell) (value T, err error) {
	c.mu.RLock()
	v := c.value
	c.mu.RUnlock()

	typed, ok := v.(T)
	if !ok {
		return value, ierr.ErrTypeMismatch
	}
	return typed, nil
}

// Type returns the cell's current runtime type.
func (c *Cell) Type() (t Type, vector bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.typ, c.vector
}

// GetAttribute returns the attribute snapshot associated with the most
// recently completed write, consistent with I3: a reader holding the
// read lock observes the attribute as of that write.
func (c *Cell) GetAttribute() attribute.Attribute {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attr
}

// SetAttribute stores the attribute snapshot for the value just written.
// Must be called while holding the write lock, right before Unlock, so
// readers acquiring the read lock afterwards see a consistent pair.
func (c *Cell) SetAttribute(a attribute.Attribute) {
	c.attr = a
}

// Expire marks the value stale. Expiry is independent of the lock
// discipline: a monotonic bit set by the owner (spec.md §4.1).
func (c *Cell) Expire() {
	atomic.StoreInt32(&c.expired, 1)
}

// IsExpired reports whether Expire was called since the last ClearExpired.
func (c *Cell) IsExpired() bool {
	return atomic.LoadInt32(&c.expired) != 0
}

// ClearExpired clears the expiry bit; called by the Source protocol
// (endpoint.Source.NotifyReady) once fresh data is published, never by
// Cell itself, so that clearing expiry remains an explicit, auditable
// step in package endpoint.
func (c *Cell) ClearExpired() {
	atomic.StoreInt32(&c.expired, 0)
}

// Fingerprint returns a cheap stable hash of the cell's current value
// (grounded on the teacher's record.go Record.ID, which hashes the record
// value with the same library). Only []byte, string and [][]float64
// values are hashed; any other value yields 0. No logger sink calls it.
func (c *Cell) Fingerprint() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch v := c.value.(type) {
	case []byte:
		return xxhash.Sum64(v)
	case string:
		return xxhash.Sum64String(v)
	case [][]float64:
		h := xxhash.New()
		for _, row := range v {
			for _, f := range row {
				var buf [8]byte
				putFloat64(buf[:], f)
				_, _ = h.Write(buf[:])
			}
		}
		return h.Sum64()
	default:
		return 0
	}
}

func putFloat64(buf []byte, f float64) {
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
}
