package deck

import (
	"log"

	"github.com/wildwinter/storydeck/internal/evaluator"
	"github.com/wildwinter/storydeck/internal/storylet"
	"github.com/wildwinter/storydeck/internal/tags"
)

// #region register

// RegisterGroup scans the evaluator's content for ids in the named group and
// registers each one that has a predicate function. Candidates without a
// predicate are skipped with a log line — a partial batch is fine. Tags are
// fetched and parsed once here; they are never re-parsed. When a function
// named exactly like the group exists it becomes the shared group gate.
// Returns the records registered (or overwritten).
func (r *Registry) RegisterGroup(ev evaluator.Evaluator, name, pool string) []storylet.Record {
	if pool == "" {
		pool = DefaultPool
	}
	p := r.Ensure(pool)

	gateID := ""
	if ev.HasFunction(name) {
		gateID = name
	}

	var added []storylet.Record
	for _, id := range Discover(ev.AllContentIDs(), name) {
		fn := FunctionID(id)
		if !ev.HasFunction(fn) {
			log.Printf("[DECK] no predicate %q for %q, skipping", fn, id)
			continue
		}
		tagMap, once := tags.Parse(ev.TagsFor(id))
		r.tags[id] = tagMap
		rec := storylet.Record{
			ID:               id,
			FunctionID:       fn,
			GroupGate:        gateID,
			DiscardAfterPlay: once,
		}
		p.Add(rec)
		added = append(added, rec)
	}
	log.Printf("[DECK] registered %d storylets from group %q into pool %q", len(added), name, pool)
	return added
}

// AddRecords installs records directly, bypassing content discovery. Used by
// the offload worker to mirror the orchestrating registry. Overwrites keep
// played state, same as registration.
func (r *Registry) AddRecords(pool string, recs []storylet.Record) {
	p := r.Ensure(pool)
	for _, rec := range recs {
		p.Add(rec)
	}
}

// RegisterDirectives applies every register:<name>[,<pool>] directive the
// evaluator exposes. Returns the total number of storylets registered.
func (r *Registry) RegisterDirectives(ev evaluator.Evaluator) int {
	total := 0
	for _, raw := range ev.GlobalDirectives() {
		d, ok := tags.ParseDirective(raw)
		if !ok {
			continue
		}
		total += len(r.RegisterGroup(ev, d.Name, d.Pool))
	}
	return total
}

// #endregion register
