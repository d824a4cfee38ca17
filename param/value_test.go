package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueCoercionAcrossKinds(t *testing.T) {
	v := NewInt64(42)
	f, err := v.Float64()
	assert.NoError(t, err)
	assert.Equal(t, float64(42), f)

	s, err := v.String()
	assert.NoError(t, err)
	assert.Equal(t, "42", s)
}

func TestValueStringCoercionToNumeric(t *testing.T) {
	v := NewString("3.5")
	f, err := v.Float64()
	assert.NoError(t, err)
	assert.Equal(t, 3.5, f)
}

func TestValueStringCoercionToInt64Fails(t *testing.T) {
	v := NewString("not-a-number")
	_, err := v.Int64()
	assert.Error(t, err)
}

func TestFromConfigString(t *testing.T) {
	v, err := FromConfigString(Int64Kind, "7")
	assert.NoError(t, err)
	i, _ := v.Int64()
	assert.Equal(t, int64(7), i)

	v, err = FromConfigString(Float64Kind, "2.5")
	assert.NoError(t, err)
	f, _ := v.Float64()
	assert.Equal(t, 2.5, f)

	v, err = FromConfigString(StringKind, "hello")
	assert.NoError(t, err)
	s, _ := v.String()
	assert.Equal(t, "hello", s)

	_, err = FromConfigString(Int64Kind, "not-a-number")
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "int64", Int64Kind.String())
	assert.Equal(t, "float64", Float64Kind.String())
	assert.Equal(t, "string", StringKind.String())
}
