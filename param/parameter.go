package param

import "sync"

// Parameter is one named, typed, indexed entry in a module's Parameter
// Set (spec.md §4.7). Reading applies any pending value first
// (try-apply-parameters); writing only marks the value pending until
// applied.
type Parameter struct {
	mu sync.RWMutex

	index int
	name  string
	desc  string
	kind  Kind

	current    Value
	pending    Value
	needsApply bool

	// Getter and Setter are populated by the owning module's
	// AddParameterGetter/AddParameterSetter, if the module author wires
	// the parameter as a data-flow endpoint in addition to a plain
	// read/write target.
	Getter *Getter
	Setter *Setter
}

// New creates a parameter with the given default value.
func New(index int, name, desc string, kind Kind, def Value) *Parameter {
	return &Parameter{
		index:   index,
		name:    name,
		desc:    desc,
		kind:    kind,
		current: def,
	}
}

func (p *Parameter) Index() int  { return p.index }
func (p *Parameter) Name() string { return p.name }
func (p *Parameter) Desc() string { return p.desc }
func (p *Parameter) Kind() Kind   { return p.kind }

// Get returns the current value, first applying a pending value if one
// is waiting (spec.md §4.7: "Reading a parameter implicitly triggers
// try-apply-parameters").
func (p *Parameter) Get() Value {
	p.TryApply()
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Set stages v as the pending value; it takes effect on the next
// try-apply-parameters (immediately, if the owning Set is in immediate
// mode and applies right away).
func (p *Parameter) Set(v Value) {
	p.mu.Lock()
	p.pending = v
	p.needsApply = true
	p.mu.Unlock()
}

// TryApply applies the pending value if one is staged, returning whether
// it did.
func (p *Parameter) TryApply() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.needsApply {
		return false
	}
	p.current = p.pending
	p.needsApply = false
	return true
}

// NeedsApply reports whether a value is staged and waiting to be
// applied.
func (p *Parameter) NeedsApply() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.needsApply
}
