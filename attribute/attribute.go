// Package attribute implements the per-value metadata carried alongside
// every Cell publication: value indexes and the sequence start/active/end
// bookkeeping described in spec.md §3 and grounded on
// original_source/src/DataAttribute.h, DataAttribute.cpp and
// DataAttributeOut.h. The stack-based DataAttributeOut variant is
// authoritative (SPEC_FULL.md §9); no SeqInfoEnum field exists here.
package attribute

import "github.com/opticalp/instrumentall/ierr"

// Attribute is per-value metadata: a set of monotonically increasing
// value indexes plus three ordered stacks of sequence identifiers
// (Starting, Active, Ending) and the set of sequence-target endpoints
// this attribute is "for" (spec.md §3).
//
// Targets holds opaque references (compared by identity) instead of a
// concrete port type, so this package stays independent from the port
// package and avoids an import cycle (port.InPort embeds an Attribute
// snapshot on every Cell read).
type Attribute struct {
	Indexes  map[uint64]struct{}
	Starting []uint64
	Active   []uint64
	Ending   []uint64
	Targets  map[interface{}]struct{}
}

// New returns an empty Attribute, as used at Cell creation before any
// data index has been assigned (spec.md §3).
func New() Attribute {
	return Attribute{
		Indexes: make(map[uint64]struct{}),
		Targets: make(map[interface{}]struct{}),
	}
}

// Copy returns a deep copy so that mutating the result never aliases the
// receiver's backing arrays/maps.
func (a Attribute) Copy() Attribute {
	out := Attribute{
		Indexes:  make(map[uint64]struct{}, len(a.Indexes)),
		Starting: append([]uint64(nil), a.Starting...),
		Active:   append([]uint64(nil), a.Active...),
		Ending:   append([]uint64(nil), a.Ending...),
		Targets:  make(map[interface{}]struct{}, len(a.Targets)),
	}
	for k := range a.Indexes {
		out.Indexes[k] = struct{}{}
	}
	for k := range a.Targets {
		out.Targets[k] = struct{}{}
	}
	return out
}

// AddIndex records a newly drawn value index (A4: drawn once from a
// process-wide counter, owned by the caller's engine.Engine).
func (a *Attribute) AddIndex(idx uint64) {
	if a.Indexes == nil {
		a.Indexes = make(map[uint64]struct{})
	}
	a.Indexes[idx] = struct{}{}
}

// AppendTarget registers a sequence-target endpoint this attribute is
// "for" (called by an OutPort during notify-ready).
func (a *Attribute) AppendTarget(ref interface{}) {
	if a.Targets == nil {
		a.Targets = make(map[interface{}]struct{})
	}
	a.Targets[ref] = struct{}{}
}

// StartSequence pushes a freshly drawn sequence id onto Active and records
// it in Starting, opening a new nested sequence on this source (A1, A2).
func (a *Attribute) StartSequence(seqID uint64) {
	a.Active = append(a.Active, seqID)
	a.Starting = append(a.Starting, seqID)
}

// EndSequence pops the innermost sequence id from Active and records it
// in Ending. It panics if seqID is not the current top of Active: ending
// a sequence that isn't the innermost open one is a Bug, not a runtime
// condition callers are expected to recover from.
func (a *Attribute) EndSequence(seqID uint64) {
	if len(a.Active) == 0 || a.Active[len(a.Active)-1] != seqID {
		panic("attribute: EndSequence called out of nesting order: " + ierr.ErrBug.Error())
	}
	a.Active = a.Active[:len(a.Active)-1]
	a.Ending = append(a.Ending, seqID)
}

// IsStarting reports whether seqID was opened by this attribute.
func (a Attribute) IsStarting(seqID uint64) bool {
	for _, id := range a.Starting {
		if id == seqID {
			return true
		}
	}
	return false
}

// IsEnding reports whether seqID was closed by this attribute.
func (a Attribute) IsEnding(seqID uint64) bool {
	for _, id := range a.Ending {
		if id == seqID {
			return true
		}
	}
	return false
}

// IsActive reports whether seqID is currently open (nested) on this
// attribute's source.
func (a Attribute) IsActive(seqID uint64) bool {
	for _, id := range a.Active {
		if id == seqID {
			return true
		}
	}
	return false
}

// Merge combines two attributes into one, as done by a module that reads
// several input ports and forwards one merged attribute downstream.
// It implements the A3 rule: indexes union unconditionally; Active must
// be equal or one a suffix of the other, otherwise the merge is refused
// with ErrAttributeMergeDisallowed (spec.md §9 Open Question: the
// original DataAttribute::operator+= is partly unimplemented — this
// spec mandates refusal over a silent, possibly-incorrect merge).
func Merge(a, b Attribute) (merged Attribute, err error) {
	shorter, longer := a.Active, b.Active
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if len(shorter) > 0 && !isSuffix(shorter, longer) {
		return Attribute{}, ierr.ErrAttributeMergeDisallowed
	}

	merged = New()
	merged.Active = append([]uint64(nil), longer...)

	for k := range a.Indexes {
		merged.Indexes[k] = struct{}{}
	}
	for k := range b.Indexes {
		merged.Indexes[k] = struct{}{}
	}
	for k := range a.Targets {
		merged.Targets[k] = struct{}{}
	}
	for k := range b.Targets {
		merged.Targets[k] = struct{}{}
	}

	merged.Starting = append(append([]uint64(nil), a.Starting...), b.Starting...)
	merged.Ending = append(append([]uint64(nil), a.Ending...), b.Ending...)

	return merged, nil
}

// isSuffix reports whether shorter is a suffix of longer when both stacks
// are read from the innermost (most recently started) sequence outward.
// Active is stored outermost first, so this means shorter equals the
// leading elements of longer.
func isSuffix(shorter, longer []uint64) bool {
	for i, v := range shorter {
		if longer[i] != v {
			return false
		}
	}
	return true
}
