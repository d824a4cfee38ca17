package param

import "sync"

// Set is the ordered, name-indexed vector of Parameters a module owns
// (spec.md §4.7). It also tracks the "apply when all set" vs "immediate"
// application mode for parameters wired as ParameterSetters.
type Set struct {
	mu        sync.RWMutex
	order     []*Parameter
	byName    map[string]*Parameter
	immediate bool

	triggered map[string]bool
}

// NewSet creates an empty Set. immediate selects the application mode
// for parameters fed by a ParameterSetter: true applies each value as
// soon as its setter fires, false holds off until every setter-backed
// parameter has fired once in the current round.
func NewSet(immediate bool) *Set {
	return &Set{
		byName:    make(map[string]*Parameter),
		immediate: immediate,
		triggered: make(map[string]bool),
	}
}

// Add registers p, in construction order.
func (s *Set) Add(p *Parameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, p)
	s.byName[p.name] = p
}

// Get looks up a parameter by name.
func (s *Set) Get(name string) (*Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byName[name]
	return p, ok
}

// List returns a stable snapshot of parameters in construction order.
func (s *Set) List() []*Parameter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Parameter, len(s.order))
	copy(out, s.order)
	return out
}

// TryApplyParameters applies every parameter's pending value, if any.
// The module calls it before each process() invocation; reading a single
// parameter (Parameter.Get) applies only that parameter's pending value.
func (s *Set) TryApplyParameters() {
	for _, p := range s.List() {
		p.TryApply()
	}
}

// NoteSetterTriggered records that name's ParameterSetter consumed an
// upstream publish this round. In immediate mode it applies right away;
// in "apply when all set" mode it applies only once every setter-backed
// parameter has been triggered since the last application, then resets
// the round.
func (s *Set) NoteSetterTriggered(name string) {
	s.mu.Lock()
	s.triggered[name] = true
	ready := s.immediate || s.allTriggeredLocked()
	s.mu.Unlock()

	if !ready {
		return
	}

	s.TryApplyParameters()

	s.mu.Lock()
	s.triggered = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Set) allTriggeredLocked() bool {
	for _, p := range s.order {
		if p.Setter == nil {
			continue
		}
		if !s.triggered[p.name] {
			return false
		}
	}
	return true
}
