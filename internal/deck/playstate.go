package deck

import (
	"log"

	"github.com/wildwinter/storydeck/internal/persist"
)

// #region play-state

// SavePlayState emits every deck entry of every pool as (id, played) pairs
// in registration order.
func (r *Registry) SavePlayState() persist.Snapshot {
	snap := make(persist.Snapshot, len(r.order))
	for _, p := range r.Pools() {
		pairs := make([]persist.PlayedPair, 0, p.Size())
		for _, rec := range p.Records() {
			pairs = append(pairs, persist.PlayedPair{ID: rec.ID, Played: rec.Played})
		}
		snap[p.Name()] = pairs
	}
	return snap
}

// LoadPlayState resets play-state for every pool, then applies played flags
// from the snapshot to ids still present in the matching deck. Pools and ids
// in the snapshot that no longer exist are dropped silently, which keeps old
// saves loadable after content changes.
func (r *Registry) LoadPlayState(snap persist.Snapshot) {
	r.Reset()
	for poolName, pairs := range snap {
		p, ok := r.Lookup(poolName)
		if !ok {
			log.Printf("[DECK] dropping saved pool %q: not registered", poolName)
			continue
		}
		for _, pair := range pairs {
			if !pair.Played {
				continue
			}
			p.MarkPlayed(pair.ID)
		}
	}
}

// #endregion play-state
