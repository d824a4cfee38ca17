// Package param implements the Parameter Set / Workers named in
// spec.md §4.7: an ordered, name-indexed vector of parameters backed by
// a tagged int64/float64/string holder, plus the ParameterGetter/
// ParameterSetter Source/Target adapters that publish and overwrite them
// across the graph.
//
// Grounded on original_source/src/DataAttributeIn.h-style tagged access
// and the teacher's config.go, whose Config type already wraps
// github.com/spf13/cast for exactly this kind of flexible typed
// conversion; Value reuses the same library for cross-kind coercion
// instead of hand-rolling int/float/string conversion rules.
package param

import (
	"github.com/spf13/cast"

	"github.com/opticalp/instrumentall/ierr"
)

// Kind is the closed set of value kinds a Parameter can hold.
type Kind int

const (
	Int64Kind Kind = iota
	Float64Kind
	StringKind
)

func (k Kind) String() string {
	switch k {
	case Int64Kind:
		return "int64"
	case Float64Kind:
		return "float64"
	case StringKind:
		return "string"
	default:
		return "unknown"
	}
}

// Value is the tagged int64/float64/string holder spec.md §4.7 requires.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func NewInt64(v int64) Value     { return Value{kind: Int64Kind, i: v} }
func NewFloat64(v float64) Value { return Value{kind: Float64Kind, f: v} }
func NewString(v string) Value   { return Value{kind: StringKind, s: v} }

// Kind reports which variant is actually held.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns v coerced to int64, using cast for a non-native kind.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case Int64Kind:
		return v.i, nil
	case Float64Kind:
		return cast.ToInt64E(v.f)
	case StringKind:
		return cast.ToInt64E(v.s)
	}
	return 0, ierr.ErrTypeMismatch
}

// Float64 returns v coerced to float64.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case Int64Kind:
		return cast.ToFloat64E(v.i)
	case Float64Kind:
		return v.f, nil
	case StringKind:
		return cast.ToFloat64E(v.s)
	}
	return 0, ierr.ErrTypeMismatch
}

// String returns v coerced to string.
func (v Value) String() (string, error) {
	switch v.kind {
	case Int64Kind:
		return cast.ToStringE(v.i)
	case Float64Kind:
		return cast.ToStringE(v.f)
	case StringKind:
		return v.s, nil
	}
	return "", ierr.ErrTypeMismatch
}

// FromConfigString parses a configuration-supplied default string
// (spec.md §6 "module.<module-name>.<param-name>") into a Value of the
// given kind.
func FromConfigString(kind Kind, s string) (Value, error) {
	switch kind {
	case Int64Kind:
		v, err := cast.ToInt64E(s)
		if err != nil {
			return Value{}, err
		}
		return NewInt64(v), nil
	case Float64Kind:
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return Value{}, err
		}
		return NewFloat64(v), nil
	case StringKind:
		return NewString(s), nil
	}
	return Value{}, ierr.ErrTypeMismatch
}
