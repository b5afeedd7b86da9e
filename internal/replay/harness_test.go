package replay

import (
	"strings"
	"testing"
)

const lifecycleFixture = `{
  "description": "register, refresh, pick, once-storylet lifecycle",
  "content": [
    {"id": "street_market"},
    {"id": "street_busker", "weight": 2},
    {"id": "street_fire", "tags": ["once"]}
  ],
  "budget": 2,
  "steps": [
    {"op": "register", "name": "street"},
    {"op": "pick", "expect_error": "not_ready"},
    {"op": "refresh"},
    {"op": "tick_until_ready"},
    {"op": "hand", "pool": "default",
     "expect": ["street_market", "street_busker", "street_fire"]},
    {"op": "mark_played", "id": "street_fire"},
    {"op": "save"},
    {"op": "refresh"},
    {"op": "tick_until_ready"},
    {"op": "hand", "pool": "default",
     "expect": ["street_market", "street_busker"]},
    {"op": "reset"},
    {"op": "load"},
    {"op": "refresh"},
    {"op": "tick_until_ready"},
    {"op": "hand", "pool": "default",
     "expect": ["street_market", "street_busker"]}
  ]
}`

func TestHarnessRunsLifecycleFixture(t *testing.T) {
	f, err := ParseFixture([]byte(lifecycleFixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h, err := NewHarness(f)
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	defer h.Close()

	if err := h.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestHarnessGatesAndDirectives(t *testing.T) {
	fixture := `{
	  "content": [
	    {"id": "street_market"},
	    {"id": "manor_ghost"}
	  ],
	  "gates": {"manor": false},
	  "directives": ["register:street,main", "register:manor,side"],
	  "steps": [
	    {"op": "directives"},
	    {"op": "refresh"},
	    {"op": "tick_until_ready"},
	    {"op": "hand", "pool": "main", "expect": ["street_market"]},
	    {"op": "hand", "pool": "side", "expect": []},
	    {"op": "pick", "pool": "side", "expect_error": "empty"}
	  ]
	}`
	f, err := ParseFixture([]byte(fixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h, err := NewHarness(f)
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	defer h.Close()

	if err := h.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestHarnessOffloadBackend(t *testing.T) {
	f, err := ParseFixture([]byte(lifecycleFixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f.Offload = true
	h, err := NewHarness(f)
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	defer h.Close()

	if err := h.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestHarnessReportsMismatch(t *testing.T) {
	fixture := `{
	  "content": [{"id": "street_market", "eligible": false}],
	  "steps": [
	    {"op": "register", "name": "street"},
	    {"op": "refresh"},
	    {"op": "tick_until_ready"},
	    {"op": "hand", "pool": "default", "expect": ["street_market"]}
	  ]
	}`
	f, err := ParseFixture([]byte(fixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h, err := NewHarness(f)
	if err != nil {
		t.Fatalf("harness: %v", err)
	}
	defer h.Close()

	err = h.Run()
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(err.Error(), "step 3") {
		t.Fatalf("error does not name the failing step: %v", err)
	}
}

func TestParseFixtureRejectsEmptySteps(t *testing.T) {
	if _, err := ParseFixture([]byte(`{"content": []}`)); err == nil {
		t.Fatal("expected error for fixture without steps")
	}
}
