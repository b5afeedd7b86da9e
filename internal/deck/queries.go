package deck

import (
	"github.com/wildwinter/storydeck/internal/storylet"
	"github.com/wildwinter/storydeck/internal/tags"
)

// #region tag-queries

// GetTag looks up a tag on a storylet id, case-insensitively, returning
// fallback when the id or key is unknown.
func (r *Registry) GetTag(id, key string, fallback tags.Value) tags.Value {
	m, ok := r.tags[id]
	if !ok {
		return fallback
	}
	return m.Get(key, fallback)
}

// EligibleWithTag filters the current hand — not the full deck — of the
// target pools by exact tag-value match. Pools that have not completed their
// refresh contribute nothing.
func (r *Registry) EligibleWithTag(key string, value tags.Value, pools ...string) []string {
	var out []string
	for _, p := range r.resolve(pools) {
		if p.State() != storylet.RefreshComplete {
			continue
		}
		for _, id := range p.Hand() {
			if r.tags[id].Get(key, nil) == value {
				out = append(out, id)
			}
		}
	}
	return out
}

// FirstEligibleWithTag returns the first current-hand id whose tag matches,
// or false when there is none.
func (r *Registry) FirstEligibleWithTag(key string, value tags.Value, pools ...string) (string, bool) {
	for _, p := range r.resolve(pools) {
		if p.State() != storylet.RefreshComplete {
			continue
		}
		for _, id := range p.Hand() {
			if r.tags[id].Get(key, nil) == value {
				return id, true
			}
		}
	}
	return "", false
}

// #endregion tag-queries
