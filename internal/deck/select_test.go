package deck

import (
	"math/rand"
	"testing"

	"github.com/wildwinter/storydeck/internal/evaluator"
)

func pickFixture(t *testing.T) (*Registry, *evaluator.Stub) {
	t.Helper()
	ev := evaluator.NewStub()
	ev.AddContent("a_heavy", nil)
	ev.AddContent("a_light", nil)
	ev.SetWeight("fn_a_heavy", 3)
	ev.SetWeight("fn_a_light", 1)

	r := NewRegistry()
	r.RegisterGroup(ev, "a", "")
	return r, ev
}

func TestPickBeforeRefreshComplete(t *testing.T) {
	r, _ := pickFixture(t)
	rng := rand.New(rand.NewSource(1))

	if _, err := r.Pick(DefaultPool, rng); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	r.BeginRefresh(nil, nil)
	if _, err := r.Pick(DefaultPool, rng); err != ErrNotReady {
		t.Fatalf("expected ErrNotReady mid-refresh, got %v", err)
	}
}

func TestPickMarksPlayed(t *testing.T) {
	r, ev := pickFixture(t)
	r.BeginRefresh(nil, nil)
	r.Drain(ev, DefaultBudget)

	rng := rand.New(rand.NewSource(7))
	id, err := r.Pick(DefaultPool, rng)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	p, _ := r.Lookup(DefaultPool)
	rec, ok := p.Get(id)
	if !ok || !rec.Played {
		t.Fatalf("picked id %q not marked played", id)
	}
}

func TestPickEmptyHand(t *testing.T) {
	ev := evaluator.NewStub()
	ev.AddContent("a_no", nil)
	ev.SetBool("fn_a_no", false)

	r := NewRegistry()
	r.RegisterGroup(ev, "a", "")
	r.BeginRefresh(nil, nil)
	r.Drain(ev, DefaultBudget)

	if _, err := r.Pick(DefaultPool, rand.New(rand.NewSource(1))); err != ErrEmptyHand {
		t.Fatalf("expected ErrEmptyHand, got %v", err)
	}
}

func TestPickHonorsWeights(t *testing.T) {
	r, ev := pickFixture(t)
	r.BeginRefresh(nil, nil)
	r.Drain(ev, DefaultBudget)

	// Weighted hand is [heavy, heavy, heavy, light]: heavy should land near
	// three quarters of the draws. Seeded rng keeps this deterministic.
	rng := rand.New(rand.NewSource(42))
	heavy := 0
	for i := 0; i < 1000; i++ {
		id, err := r.Pick(DefaultPool, rng)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if id == "a_heavy" {
			heavy++
		}
	}
	if heavy < 650 || heavy > 850 {
		t.Fatalf("heavy drawn %d/1000, expected near 750", heavy)
	}
}

func TestMarkPlayedFansOut(t *testing.T) {
	ev := evaluator.NewStub()
	ev.AddContent("shared_event", nil)
	ev.SetBool("fn_shared_event", true)

	r := NewRegistry()
	r.RegisterGroup(ev, "shared", "main")
	r.RegisterGroup(ev, "shared", "side")
	r.Ensure("empty")

	// No pool named: applies everywhere, ignoring pools without the id.
	r.MarkPlayed("shared_event")

	for _, name := range []string{"main", "side"} {
		p, _ := r.Lookup(name)
		rec, _ := p.Get("shared_event")
		if !rec.Played {
			t.Fatalf("fan-out missed pool %q", name)
		}
	}
}

func TestMarkPlayedNamedPool(t *testing.T) {
	ev := evaluator.NewStub()
	ev.AddContent("shared_event", nil)
	ev.SetBool("fn_shared_event", true)

	r := NewRegistry()
	r.RegisterGroup(ev, "shared", "main")
	r.RegisterGroup(ev, "shared", "side")

	r.MarkPlayed("shared_event", "main")

	mainPool, _ := r.Lookup("main")
	rec, _ := mainPool.Get("shared_event")
	if !rec.Played {
		t.Fatal("named pool not marked")
	}
	sidePool, _ := r.Lookup("side")
	rec, _ = sidePool.Get("shared_event")
	if rec.Played {
		t.Fatal("unnamed pool should be untouched")
	}
}
