package evaluator

import "sort"

// #region stub

// Stub is a scriptable in-memory Evaluator for tests and fixture replay.
// Functions are registered individually; state is an opaque string the stub
// stores verbatim.
type Stub struct {
	funcs      map[string]func() (Result, error)
	tags       map[string][]string
	ids        []string
	directives []string
	state      string
	evalCounts map[string]int
}

// NewStub creates an empty stub.
func NewStub() *Stub {
	return &Stub{
		funcs:      make(map[string]func() (Result, error)),
		tags:       make(map[string][]string),
		evalCounts: make(map[string]int),
	}
}

// AddContent declares a content unit with its raw tags.
func (s *Stub) AddContent(id string, rawTags []string) {
	if _, ok := s.tags[id]; !ok {
		s.ids = append(s.ids, id)
	}
	s.tags[id] = rawTags
}

// SetFunc installs an arbitrary predicate function.
func (s *Stub) SetFunc(name string, fn func() (Result, error)) {
	s.funcs[name] = fn
}

// SetBool installs a predicate that always returns b.
func (s *Stub) SetBool(name string, b bool) {
	s.SetFunc(name, func() (Result, error) { return BoolResult(b), nil })
}

// SetWeight installs a predicate that always returns the number w.
func (s *Stub) SetWeight(name string, w float64) {
	s.SetFunc(name, func() (Result, error) { return NumberResult(w), nil })
}

// SetDirectives replaces the global directive list.
func (s *Stub) SetDirectives(directives ...string) {
	s.directives = directives
}

// EvalCount reports how many times a function has been evaluated.
func (s *Stub) EvalCount(name string) int { return s.evalCounts[name] }

// #endregion stub

// #region contract

// Evaluate implements Evaluator.
func (s *Stub) Evaluate(functionID string) (Result, error) {
	fn, ok := s.funcs[functionID]
	if !ok {
		return Result{}, ErrUnknownFunction
	}
	s.evalCounts[functionID]++
	return fn()
}

// HasFunction implements Evaluator.
func (s *Stub) HasFunction(name string) bool {
	_, ok := s.funcs[name]
	return ok
}

// TagsFor implements Evaluator.
func (s *Stub) TagsFor(id string) []string { return s.tags[id] }

// AllContentIDs implements Evaluator. Returns ids sorted for determinism.
func (s *Stub) AllContentIDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	sort.Strings(out)
	return out
}

// GlobalDirectives implements Evaluator.
func (s *Stub) GlobalDirectives() []string { return s.directives }

// SerializeState implements Evaluator.
func (s *Stub) SerializeState() (string, error) { return s.state, nil }

// LoadState implements Evaluator.
func (s *Stub) LoadState(token string) error {
	s.state = token
	return nil
}

// #endregion contract
