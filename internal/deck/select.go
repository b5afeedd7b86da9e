package deck

import (
	"errors"
	"log"
	"math/rand"

	"github.com/wildwinter/storydeck/internal/storylet"
)

// Usage-order and availability errors. These surface to the caller instead
// of panicking: an empty hand is a legal, if uninteresting, state.
var (
	// ErrNotReady reports a read against a pool that has not completed its
	// refresh.
	ErrNotReady = errors.New("pool not refreshed")
	// ErrEmptyHand reports a pick against a completed but empty weighted hand.
	ErrEmptyHand = errors.New("no storylet available")
)

// #region pick

// Pick draws one id uniformly from the pool's weighted hand — ids appear in
// it once per weight point, so heavier storylets are proportionally more
// likely — and marks it played. Valid only when the pool is RefreshComplete.
func (r *Registry) Pick(pool string, rng *rand.Rand) (string, error) {
	p := r.Ensure(pool)
	if p.State() != storylet.RefreshComplete {
		log.Printf("[DECK] pick from pool %q in state %s", p.Name(), p.State())
		return "", ErrNotReady
	}
	weighted := p.WeightedHand()
	if len(weighted) == 0 {
		return "", ErrEmptyHand
	}
	id := weighted[rng.Intn(len(weighted))]
	p.MarkPlayed(id)
	return id, nil
}

// MarkPlayed flags id as played. With no pools named it fans out to every
// registered pool, silently skipping pools that do not contain the id.
func (r *Registry) MarkPlayed(id string, pools ...string) {
	for _, p := range r.resolve(pools) {
		p.MarkPlayed(id)
	}
}

// Reset clears play-state for the target pools: played flags, hands, any
// in-flight queue, and lifecycle state back to NeedsRefresh.
func (r *Registry) Reset(pools ...string) {
	for _, p := range r.resolve(pools) {
		p.Reset()
	}
}

// #endregion pick
