// Package deck owns the set of named storylet pools: registration, refresh
// queue draining, weighted selection, tag queries, and play-state snapshots.
// A Registry has exactly one mutator at a time — the orchestrating context or
// an offloaded worker, never both — so it carries no locks.
package deck

import (
	"log"

	"github.com/wildwinter/storydeck/internal/storylet"
	"github.com/wildwinter/storydeck/internal/tags"
)

// DefaultPool is the pool used when callers do not name one.
const DefaultPool = "default"

// #region registry

// Registry holds every pool plus the tag cache shared across pools. Pools are
// created lazily the first time they are named and live for the lifetime of
// the process.
type Registry struct {
	pools map[string]*storylet.Pool
	order []string // pool creation order
	tags  map[string]tags.Map
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pools: make(map[string]*storylet.Pool),
		tags:  make(map[string]tags.Map),
	}
}

// Ensure returns the named pool, creating it if this is the first reference.
func (r *Registry) Ensure(name string) *storylet.Pool {
	if name == "" {
		name = DefaultPool
	}
	if p, ok := r.pools[name]; ok {
		return p
	}
	p := storylet.NewPool(name)
	r.pools[name] = p
	r.order = append(r.order, name)
	log.Printf("[DECK] created pool %q", name)
	return p
}

// Lookup returns the named pool without creating it.
func (r *Registry) Lookup(name string) (*storylet.Pool, bool) {
	p, ok := r.pools[name]
	return p, ok
}

// Pools returns every pool in creation order.
func (r *Registry) Pools() []*storylet.Pool {
	out := make([]*storylet.Pool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pools[name])
	}
	return out
}

// PoolNames returns pool names in creation order.
func (r *Registry) PoolNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Tags returns the cached tag map for a storylet id, or nil.
func (r *Registry) Tags(id string) tags.Map { return r.tags[id] }

// AllReady reports whether at least one pool exists and every pool is
// RefreshComplete.
func (r *Registry) AllReady() bool {
	if len(r.order) == 0 {
		return false
	}
	for _, p := range r.pools {
		if p.State() != storylet.RefreshComplete {
			return false
		}
	}
	return true
}

// AnyRefreshing reports whether any pool is mid-refresh.
func (r *Registry) AnyRefreshing() bool {
	for _, p := range r.pools {
		if p.State() == storylet.Refreshing {
			return true
		}
	}
	return false
}

// resolve maps a possibly-empty pool name list to concrete pools. Empty means
// every pool; named pools are created lazily.
func (r *Registry) resolve(names []string) []*storylet.Pool {
	if len(names) == 0 {
		return r.Pools()
	}
	out := make([]*storylet.Pool, 0, len(names))
	for _, name := range names {
		out = append(out, r.Ensure(name))
	}
	return out
}

// #endregion registry
