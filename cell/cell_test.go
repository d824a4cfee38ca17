package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/ierr"
)

func TestCellSetNewDataAndGetData(t *testing.T) {
	c := New()
	c.WriteLock()
	c.SetNewData(Int64, false, int64(42))
	c.Unlock()

	c.ReadLock()
	v, err := GetData[int64](c)
	c.RUnlock()

	assert.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestCellGetDataTypeMismatch(t *testing.T) {
	c := New()
	c.WriteLock()
	c.SetNewData(String, false, "hello")
	c.Unlock()

	c.ReadLock()
	_, err := GetData[int64](c)
	c.RUnlock()

	assert.ErrorIs(t, err, ierr.ErrTypeMismatch)
}

func TestCellTryLocksAreExclusive(t *testing.T) {
	c := New()
	assert.True(t, c.TryWriteLock())
	assert.False(t, c.TryWriteLock(), "a second write lock must not be grantable while held")
	assert.False(t, c.TryReadLock(), "a read lock must not be grantable while the write lock is held")
	c.Unlock()

	assert.True(t, c.TryReadLock())
	assert.True(t, c.TryReadLock(), "read locks are shared")
	c.RUnlock()
	c.RUnlock()
}

func TestCellExpiry(t *testing.T) {
	c := New()
	assert.False(t, c.IsExpired())
	c.Expire()
	assert.True(t, c.IsExpired())
	c.ClearExpired()
	assert.False(t, c.IsExpired())
}

func TestCellTypeRoundTrip(t *testing.T) {
	c := New()
	c.WriteLock()
	c.SetNewData(Float64, true, []float64{1, 2, 3})
	c.Unlock()

	typ, vector := c.Type()
	assert.Equal(t, Float64, typ)
	assert.True(t, vector)
}

func TestCellAttributeSnapshot(t *testing.T) {
	c := New()
	a := c.GetAttribute()
	a.AddIndex(5)

	c.WriteLock()
	c.SetAttribute(a)
	c.Unlock()

	got := c.GetAttribute()
	assert.Contains(t, got.Indexes, uint64(5))
}

func TestCellFingerprintStableForEqualValues(t *testing.T) {
	c1 := New()
	c1.WriteLock()
	c1.SetNewData(String, false, "same-value")
	c1.Unlock()

	c2 := New()
	c2.WriteLock()
	c2.SetNewData(String, false, "same-value")
	c2.Unlock()

	assert.Equal(t, c1.Fingerprint(), c2.Fingerprint())
}

func TestCellFingerprintDiffersForDifferentValues(t *testing.T) {
	c1 := New()
	c1.WriteLock()
	c1.SetNewData(String, false, "a")
	c1.Unlock()

	c2 := New()
	c2.WriteLock()
	c2.SetNewData(String, false, "b")
	c2.Unlock()

	assert.NotEqual(t, c1.Fingerprint(), c2.Fingerprint())
}
