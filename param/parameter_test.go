package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterSetThenGetAppliesPending(t *testing.T) {
	p := New(0, "gain", "gain factor", Float64Kind, NewFloat64(1.0))

	p.Set(NewFloat64(2.0))
	assert.True(t, p.NeedsApply())

	v := p.Get()
	f, _ := v.Float64()
	assert.Equal(t, 2.0, f)
	assert.False(t, p.NeedsApply(), "Get must apply the pending value before returning it")
}

func TestParameterTryApplyReportsWhetherItApplied(t *testing.T) {
	p := New(0, "gain", "", Float64Kind, NewFloat64(1.0))
	assert.False(t, p.TryApply(), "nothing staged yet")

	p.Set(NewFloat64(3.0))
	assert.True(t, p.TryApply())
	assert.False(t, p.TryApply(), "already applied")
}

func TestParameterAccessors(t *testing.T) {
	p := New(2, "threshold", "detection threshold", Int64Kind, NewInt64(10))
	assert.Equal(t, 2, p.Index())
	assert.Equal(t, "threshold", p.Name())
	assert.Equal(t, "detection threshold", p.Desc())
	assert.Equal(t, Int64Kind, p.Kind())
}
