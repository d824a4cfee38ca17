package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/ierr"
)

func TestAttributeAddIndex(t *testing.T) {
	a := New()
	a.AddIndex(1)
	a.AddIndex(2)
	assert.Len(t, a.Indexes, 2)
	assert.Contains(t, a.Indexes, uint64(1))
	assert.Contains(t, a.Indexes, uint64(2))
}

func TestAttributeCopyIsIndependent(t *testing.T) {
	a := New()
	a.AddIndex(1)
	a.StartSequence(7)

	b := a.Copy()
	b.AddIndex(2)
	b.StartSequence(8)

	assert.Len(t, a.Indexes, 1, "copy must not alias the original's map")
	assert.Equal(t, []uint64{7}, a.Active)
	assert.Equal(t, []uint64{7, 8}, b.Active)
}

func TestAttributeSequenceLifecycle(t *testing.T) {
	a := New()
	a.StartSequence(1)
	assert.True(t, a.IsStarting(1))
	assert.True(t, a.IsActive(1))
	assert.False(t, a.IsEnding(1))

	a.StartSequence(2)
	assert.Equal(t, []uint64{1, 2}, a.Active)

	a.EndSequence(2)
	assert.True(t, a.IsEnding(2))
	assert.False(t, a.IsActive(2))
	assert.True(t, a.IsActive(1))

	a.EndSequence(1)
	assert.Empty(t, a.Active)
}

func TestAttributeEndSequenceOutOfOrderPanics(t *testing.T) {
	a := New()
	a.StartSequence(1)
	a.StartSequence(2)

	assert.Panics(t, func() { a.EndSequence(1) })
}

func TestAttributeMergeSuffixAllowed(t *testing.T) {
	a := New()
	a.StartSequence(1)

	b := New()
	b.StartSequence(1)
	b.StartSequence(2)

	merged, err := Merge(a, b)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, merged.Active)
}

func TestAttributeMergeDivergentDisallowed(t *testing.T) {
	a := New()
	a.StartSequence(1)

	b := New()
	b.StartSequence(2)

	_, err := Merge(a, b)
	assert.ErrorIs(t, err, ierr.ErrAttributeMergeDisallowed)
}

func TestAttributeMergeUnionsIndexesAndTargets(t *testing.T) {
	a := New()
	a.AddIndex(1)
	a.AppendTarget("t1")

	b := New()
	b.AddIndex(2)
	b.AppendTarget("t2")

	merged, err := Merge(a, b)
	assert.NoError(t, err)
	assert.Len(t, merged.Indexes, 2)
	assert.Len(t, merged.Targets, 2)
}
