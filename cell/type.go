package cell

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import "fmt"

// Type is the closed enumeration of runtime types a Cell can hold.
type Type uint8

const (
	// Undefined marks a cell that has never been written.
	Undefined Type = iota
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	String
	// Matrix is the opaque numeric matrix payload, standing in for the
	// original implementation's cv::Mat.
	Matrix
)

func (t Type) String() (name string) {
	switch t {
	case Undefined:
		return "undefined"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Matrix:
		return "matrix"
	}
	return "unknown"
}

// ShortName returns the canonical wire name for the type, optionally
// decorated with the Vect suffix for its vector container form
// (spec.md §6 "Short names are canonical and reversible").
func ShortName(t Type, vector bool) (name string) {
	name = t.String()
	if vector {
		name += "Vect"
	}
	return name
}

// FromShortName parses a canonical wire name back into its Type and
// vector flag. It is the inverse of ShortName, satisfying the round-trip
// property in spec.md §8.
func FromShortName(name string) (t Type, vector bool, err error) {
	base := name
	if len(name) > 4 && name[len(name)-4:] == "Vect" {
		vector = true
		base = name[:len(name)-4]
	}

	for c := Undefined; c <= Matrix; c++ {
		if c.String() == base {
			return c, vector, nil
		}
	}

	return Undefined, false, fmt.Errorf("cell: unknown short type name %q", name)
}
