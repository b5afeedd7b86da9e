package luaeval

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/wildwinter/storydeck/internal/evaluator"
)

const testScript = `
content = {
  street_market = { tags = { "mood: bustling", "once" } },
  street_alley = {},
  manor_ghost = { tags = { "mood: eerie" } },
}

directives = { "register:street", "register:manor,side" }

state = { courage = 2, visited = false }

function fn_street_market() return true end
function fn_street_alley() return state.courage end
function fn_manor_ghost() return state.visited end
function fn_broken() error("boom") end
function fn_odd() return "a string" end
function street() return true end
`

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := New(testScript)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return ev
}

func TestEvaluateResultKinds(t *testing.T) {
	ev := newEvaluator(t)

	res, err := ev.Evaluate("fn_street_market")
	if err != nil {
		t.Fatalf("bool predicate: %v", err)
	}
	if res.Kind != evaluator.KindBool || !res.Bool {
		t.Fatalf("bool result = %+v", res)
	}

	res, err = ev.Evaluate("fn_street_alley")
	if err != nil {
		t.Fatalf("number predicate: %v", err)
	}
	if res.Kind != evaluator.KindNumber || res.Weight() != 2 {
		t.Fatalf("number result = %+v, weight %d", res, res.Weight())
	}

	res, err = ev.Evaluate("fn_odd")
	if err != nil {
		t.Fatalf("string predicate: %v", err)
	}
	if res.Kind != evaluator.KindInvalid || res.Weight() != 0 {
		t.Fatalf("invalid result = %+v", res)
	}
}

func TestEvaluateErrors(t *testing.T) {
	ev := newEvaluator(t)

	if _, err := ev.Evaluate("fn_missing"); !errors.Is(err, evaluator.ErrUnknownFunction) {
		t.Fatalf("missing function: %v", err)
	}
	_, err := ev.Evaluate("fn_broken")
	if err == nil || errors.Is(err, evaluator.ErrUnknownFunction) {
		t.Fatalf("runtime error: %v", err)
	}
	if !strings.Contains(err.Error(), "fn_broken") {
		t.Fatalf("error does not name function: %v", err)
	}
	// A failed call must not poison the stack for later calls.
	if _, err := ev.Evaluate("fn_street_market"); err != nil {
		t.Fatalf("evaluate after failure: %v", err)
	}
}

func TestHasFunction(t *testing.T) {
	ev := newEvaluator(t)
	if !ev.HasFunction("street") {
		t.Fatal("street gate not found")
	}
	if ev.HasFunction("manor") {
		t.Fatal("nonexistent gate reported present")
	}
	// content is a table, not a function
	if ev.HasFunction("content") {
		t.Fatal("table reported as function")
	}
}

func TestContentDiscovery(t *testing.T) {
	ev := newEvaluator(t)

	want := []string{"manor_ghost", "street_alley", "street_market"}
	if got := ev.AllContentIDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v", got)
	}

	tags := ev.TagsFor("street_market")
	if !reflect.DeepEqual(tags, []string{"mood: bustling", "once"}) {
		t.Fatalf("tags = %v", tags)
	}
	if got := ev.TagsFor("street_alley"); got != nil {
		t.Fatalf("expected no tags, got %v", got)
	}
	if got := ev.TagsFor("nonexistent"); got != nil {
		t.Fatalf("expected no tags for unknown id, got %v", got)
	}

	dirs := ev.GlobalDirectives()
	if !reflect.DeepEqual(dirs, []string{"register:street", "register:manor,side"}) {
		t.Fatalf("directives = %v", dirs)
	}
}

func TestStateRoundTrip(t *testing.T) {
	ev := newEvaluator(t)

	token, err := ev.SerializeState()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(token, `"courage":2`) {
		t.Fatalf("token = %s", token)
	}

	if err := ev.LoadState(`{"courage": 0, "visited": true}`); err != nil {
		t.Fatalf("load: %v", err)
	}
	res, err := ev.Evaluate("fn_street_alley")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Weight() != 0 {
		t.Fatalf("courage weight after load = %d", res.Weight())
	}
	res, err = ev.Evaluate("fn_manor_ghost")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Kind != evaluator.KindBool || !res.Bool {
		t.Fatalf("visited after load = %+v", res)
	}
}

func TestLoadStateRejectsBadToken(t *testing.T) {
	ev := newEvaluator(t)
	if err := ev.LoadState("{not json"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFactorySeedsFreshVM(t *testing.T) {
	build := Factory(testScript)

	ev, err := build(`{"courage": 7, "visited": true}`)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	res, err := ev.Evaluate("fn_street_alley")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Weight() != 7 {
		t.Fatalf("seeded weight = %d", res.Weight())
	}

	// An unseeded build keeps the script's defaults.
	ev, err = build("")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	res, err = ev.Evaluate("fn_street_alley")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Weight() != 2 {
		t.Fatalf("default weight = %d", res.Weight())
	}
}
