// Package replay runs recorded fixtures against the engine: a fixture
// declares content, gate decisions, and a step script, and the harness
// executes the steps with a seeded RNG so runs are reproducible.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture

// Storylet declares one content unit for the fixture's evaluator. Weight
// wins over Eligible when both are set; an unset Eligible means eligible.
type Storylet struct {
	ID       string   `json:"id"`
	Tags     []string `json:"tags,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Eligible *bool    `json:"eligible,omitempty"`
}

// Step is one scripted operation. Which fields matter depends on Op:
//
//	register        name, pool
//	directives      -
//	refresh         pools
//	tick            expect (pools completed this tick, order-insensitive)
//	tick_until_ready -
//	pick            pool, expect (acceptable ids), expect_error
//	mark_played     id, pools
//	reset           pools
//	hand            pool, expect (exact ids, order-insensitive), expect_error
//	save            -
//	load            -
type Step struct {
	Op          string   `json:"op"`
	Name        string   `json:"name,omitempty"`
	Pool        string   `json:"pool,omitempty"`
	ID          string   `json:"id,omitempty"`
	Pools       []string `json:"pools,omitempty"`
	Expect      []string `json:"expect,omitempty"`
	ExpectError string   `json:"expect_error,omitempty"` // "not_ready" | "empty"
}

// Fixture is a complete recorded scenario.
type Fixture struct {
	Description string          `json:"description,omitempty"`
	Content     []Storylet      `json:"content"`
	Gates       map[string]bool `json:"gates,omitempty"`
	Directives  []string        `json:"directives,omitempty"`
	Budget      int             `json:"budget,omitempty"`
	Offload     bool            `json:"offload,omitempty"`
	Seed        int64           `json:"seed,omitempty"`
	Steps       []Step          `json:"steps"`
}

// #endregion fixture

// #region load

// ParseFixture decodes a fixture from JSON.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Steps) == 0 {
		return Fixture{}, fmt.Errorf("fixture has no steps")
	}
	return f, nil
}

// LoadFixture reads and decodes a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// #endregion load
