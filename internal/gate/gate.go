// Package gate evaluates group gates: single predicates shared by an entire
// named storylet group, checked once per refresh before any individual
// predicate. Gate evaluation always runs in the orchestrating context because
// gates frequently reach host-bound callbacks an offloaded worker cannot see.
package gate

import (
	"errors"
	"log"

	"github.com/wildwinter/storydeck/internal/evaluator"
)

// #region evaluate

// EvaluateAll evaluates each distinct gate id exactly once and returns the
// active/inactive decision per gate. A missing gate function is active
// (fail-open); any other evaluation failure makes that gate inactive.
func EvaluateAll(ev evaluator.Evaluator, gateIDs []string) map[string]bool {
	out := make(map[string]bool, len(gateIDs))
	for _, id := range gateIDs {
		if _, done := out[id]; done {
			continue
		}
		out[id] = evaluateOne(ev, id)
	}
	return out
}

func evaluateOne(ev evaluator.Evaluator, id string) bool {
	if !ev.HasFunction(id) {
		log.Printf("[GATE] no gate function %q, treating as active", id)
		return true
	}
	res, err := ev.Evaluate(id)
	if err != nil {
		if errors.Is(err, evaluator.ErrUnknownFunction) {
			log.Printf("[GATE] no gate function %q, treating as active", id)
			return true
		}
		log.Printf("[GATE] gate %q failed: %v, treating as inactive", id, err)
		return false
	}
	return res.Weight() > 0
}

// #endregion evaluate
