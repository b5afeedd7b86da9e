// Package evaluator defines the predicate evaluator contract the scheduler
// consumes. The evaluator is the narrative engine's view into world state: it
// answers "is this function true, and how strongly" without the scheduler
// knowing anything about the scripting language behind it.
package evaluator

import "errors"

// ErrUnknownFunction reports that the named predicate function does not
// exist. Callers treat it differently from other evaluation failures: group
// gates fail open on it, everything else fails closed.
var ErrUnknownFunction = errors.New("unknown function")

// Evaluator is the contract consumed by registration, refresh, and the
// offload worker. Implementations are not required to be safe for concurrent
// use; each execution context holds its own instance.
type Evaluator interface {
	// Evaluate calls the named predicate function and returns its tagged
	// result. Returns ErrUnknownFunction when the function does not exist.
	Evaluate(functionID string) (Result, error)

	// HasFunction reports whether the named function exists without
	// evaluating it.
	HasFunction(name string) bool

	// TagsFor returns the raw tag strings attached to a content unit, or nil.
	TagsFor(id string) []string

	// AllContentIDs enumerates every known content unit id.
	AllContentIDs() []string

	// GlobalDirectives returns content-level directives such as
	// "register:street,main".
	GlobalDirectives() []string

	// SerializeState snapshots the evaluator's mutable state to an opaque
	// token suitable for seeding another instance.
	SerializeState() (string, error)

	// LoadState restores state from a token produced by SerializeState.
	LoadState(token string) error
}
