package replay

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/wildwinter/storydeck/internal/deck"
	"github.com/wildwinter/storydeck/internal/evaluator"
	"github.com/wildwinter/storydeck/internal/orchestrator"
)

// maxTicks bounds tick_until_ready so a stalled refresh fails the run
// instead of hanging it.
const maxTicks = 1000

// #region harness

// Harness executes one fixture against a fresh engine.
type Harness struct {
	fixture Fixture
	orch    *orchestrator.Orchestrator
	saved   []byte
}

// buildStub constructs one evaluator instance from the fixture's content.
// Each execution context gets its own.
func buildStub(f Fixture) *evaluator.Stub {
	stub := evaluator.NewStub()
	for _, s := range f.Content {
		stub.AddContent(s.ID, s.Tags)
		fn := deck.FunctionID(s.ID)
		switch {
		case s.Weight != nil:
			stub.SetWeight(fn, *s.Weight)
		case s.Eligible != nil:
			stub.SetBool(fn, *s.Eligible)
		default:
			stub.SetBool(fn, true)
		}
	}
	for gateName, active := range f.Gates {
		stub.SetBool(gateName, active)
	}
	stub.SetDirectives(f.Directives...)
	return stub
}

// NewHarness builds the fixture's evaluator and orchestrator. The fixture's
// seed (default 1) drives selection, so picks are reproducible. With the
// offload flag set the refresh work runs through the channel backend against
// a second evaluator instance.
func NewHarness(f Fixture) (*Harness, error) {
	seed := f.Seed
	if seed == 0 {
		seed = 1
	}
	opts := []orchestrator.Option{
		orchestrator.WithBudget(f.Budget),
		orchestrator.WithRand(rand.New(rand.NewSource(seed))),
	}
	if f.Offload {
		opts = append(opts, orchestrator.WithOffload(func(stateToken string) (evaluator.Evaluator, error) {
			stub := buildStub(f)
			if stateToken != "" {
				if err := stub.LoadState(stateToken); err != nil {
					return nil, err
				}
			}
			return stub, nil
		}))
	}

	orch, err := orchestrator.New(buildStub(f), opts...)
	if err != nil {
		return nil, err
	}
	return &Harness{fixture: f, orch: orch}, nil
}

// Close releases the engine.
func (h *Harness) Close() {
	h.orch.Close()
}

// Run executes every step, stopping at the first mismatch.
func (h *Harness) Run() error {
	for i, step := range h.fixture.Steps {
		if err := h.runStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		log.Printf("[REPLAY] step %d (%s) ok", i, step.Op)
	}
	return nil
}

// #endregion harness

// #region steps

func (h *Harness) runStep(step Step) error {
	switch step.Op {
	case "register":
		h.orch.AddStorylets(step.Name, step.Pool)
		return nil
	case "directives":
		h.orch.RegisterDirectives()
		return nil
	case "refresh":
		return h.orch.Refresh(step.Pools...)
	case "tick":
		completed := h.orch.Tick()
		if step.Expect == nil {
			return nil
		}
		if !sameSet(completed, step.Expect) {
			return fmt.Errorf("completed %v, want %v", completed, step.Expect)
		}
		return nil
	case "tick_until_ready":
		for i := 0; i < maxTicks; i++ {
			if h.orch.AllReady() {
				return nil
			}
			h.orch.Tick()
			if h.fixture.Offload {
				// Give the worker a chance to answer between polls.
				time.Sleep(time.Millisecond)
			}
		}
		return fmt.Errorf("pools not ready after %d ticks", maxTicks)
	case "pick":
		id, err := h.orch.Pick(step.Pool)
		if step.ExpectError != "" {
			return checkError(err, step.ExpectError)
		}
		if err != nil {
			return err
		}
		if len(step.Expect) > 0 && !contains(step.Expect, id) {
			return fmt.Errorf("picked %q, want one of %v", id, step.Expect)
		}
		return nil
	case "mark_played":
		h.orch.MarkPlayed(step.ID, step.Pools...)
		return nil
	case "reset":
		h.orch.Reset(step.Pools...)
		return nil
	case "hand":
		hand, err := h.orch.Hand(step.Pool)
		if step.ExpectError != "" {
			return checkError(err, step.ExpectError)
		}
		if err != nil {
			return err
		}
		if !sameSet(hand, step.Expect) {
			return fmt.Errorf("hand %v, want %v", hand, step.Expect)
		}
		return nil
	case "save":
		blob, err := h.orch.Save()
		if err != nil {
			return err
		}
		h.saved = blob
		return nil
	case "load":
		if h.saved == nil {
			return fmt.Errorf("load before save")
		}
		return h.orch.Load(h.saved)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func checkError(err error, kind string) error {
	switch kind {
	case "not_ready":
		if !errors.Is(err, orchestrator.ErrNotReady) {
			return fmt.Errorf("expected not-ready error, got %v", err)
		}
	case "empty":
		if !errors.Is(err, orchestrator.ErrEmptyHand) {
			return fmt.Errorf("expected empty-hand error, got %v", err)
		}
	default:
		return fmt.Errorf("unknown expect_error %q", kind)
	}
	return nil
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// #endregion steps
