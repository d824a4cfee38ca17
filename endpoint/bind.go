package endpoint

// Bind connects source to target, replacing any source target was
// previously bound to (spec.md §8 scenario 5, "bind replacement"). It is
// the sole entry point the dispatcher package uses to mutate the
// Source/Target graph, keeping bind/unbind symmetric and exercised from
// one place.
func Bind(s *Source, t *Target) {
	t.bind(s)
}

// Unbind disconnects target from its current source, if any. Idempotent.
func Unbind(t *Target) {
	s := t.Source()
	if s == nil {
		return
	}
	t.unbind(s)
}

// UnbindSource disconnects every target currently bound to source.
func UnbindSource(s *Source) {
	for _, t := range s.Targets() {
		t.unbind(s)
	}
}
