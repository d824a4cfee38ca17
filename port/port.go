// Package port implements the module-side Source/Target endpoints named
// in spec.md §3/§4: OutPort (Source+SeqSource), InPort (Target+SeqTarget)
// and TrigPort (an InPort that accepts any type and only uses the
// attribute). Grounded on original_source/src/OutPort.cpp, InPort.cpp,
// InDataPort.cpp and the teacher's Node (module-side processor wrapper
// with a name/type/parent, node.go) generalized from one Processor field
// to a typed port.
package port

import (
	"github.com/opticalp/instrumentall/endpoint"
)

// SeqSource and SeqTarget are the parallel edge used only by the
// sequence protocol (spec.md §3 "Endpoints"). They are modeled as a
// second, independent endpoint.Source/Target pair rather than a distinct
// Go type, since structurally they behave identically to the data edge.
type (
	SeqSource = endpoint.Source
	SeqTarget = endpoint.Target
)

// Base carries the identity every port shares: name, description, index
// within its parent module, and the parent module's name (a string
// rather than a live reference, so this package does not import
// package module — modules own their ports, not the reverse).
type Base struct {
	Name       string
	Desc       string
	Index      int
	ModuleName string
}
