package deck

import (
	"log"

	"github.com/wildwinter/storydeck/internal/evaluator"
	"github.com/wildwinter/storydeck/internal/storylet"
)

// DefaultBudget is the number of predicate evaluations performed per
// refreshing pool per tick.
const DefaultBudget = 5

// #region begin-refresh

// GateIDs returns the distinct group gates referenced by the target pools'
// decks, in deck order. Empty names means every pool.
func (r *Registry) GateIDs(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.resolve(names) {
		for _, rec := range p.Records() {
			if rec.GroupGate == "" || seen[rec.GroupGate] {
				continue
			}
			seen[rec.GroupGate] = true
			out = append(out, rec.GroupGate)
		}
	}
	return out
}

// BeginRefresh builds pending queues for the target pools from records whose
// gate evaluated active, clears hands, and flips state to Refreshing. Pools
// already mid-refresh are skipped — calling refresh on a refreshing pool is a
// no-op, never a queue rebuild. Returns the names of pools that started.
func (r *Registry) BeginRefresh(names []string, gateActive map[string]bool) []string {
	var started []string
	for _, p := range r.resolve(names) {
		if p.State() == storylet.Refreshing {
			log.Printf("[SCHED] pool %q already refreshing, ignoring", p.Name())
			continue
		}
		p.BeginRefresh(func(gate string) bool {
			active, known := gateActive[gate]
			if !known {
				// Gates are computed for every gate the targets reference;
				// an unknown one means the caller skipped it, so stay open.
				return true
			}
			return active
		})
		started = append(started, p.Name())
	}
	return started
}

// BeginRemoteRefresh flips the target pools to Refreshing without building
// local queues; the queue lives in the offloaded worker. Skips pools already
// refreshing. Returns the names of pools that started.
func (r *Registry) BeginRemoteRefresh(names []string) []string {
	var started []string
	for _, p := range r.resolve(names) {
		if p.State() == storylet.Refreshing {
			log.Printf("[SCHED] pool %q already refreshing, ignoring", p.Name())
			continue
		}
		p.BeginRemoteRefresh()
		started = append(started, p.Name())
	}
	return started
}

// #endregion begin-refresh

// #region drain

// Drain processes up to budget pending records per refreshing pool: each
// record's predicate is evaluated and positive weights land in the hand.
// Pools whose queue empties flip to RefreshComplete and are reported exactly
// once. Evaluation failures are non-fatal and count as weight 0.
func (r *Registry) Drain(ev evaluator.Evaluator, budget int) []string {
	if budget <= 0 {
		budget = DefaultBudget
	}
	var completed []string
	for _, p := range r.Pools() {
		if p.State() != storylet.Refreshing {
			continue
		}
		for _, rec := range p.TakeFromQueue(budget) {
			p.AppendEligible(rec.ID, recordWeight(ev, rec))
		}
		if p.QueueLen() == 0 {
			p.FinishRefresh()
			completed = append(completed, p.Name())
			log.Printf("[SCHED] pool %q refresh complete, hand size %d", p.Name(), len(p.Hand()))
		}
	}
	return completed
}

func recordWeight(ev evaluator.Evaluator, rec *storylet.Record) int {
	if rec.DiscardAfterPlay && rec.Played {
		return 0
	}
	res, err := ev.Evaluate(rec.FunctionID)
	if err != nil {
		log.Printf("[SCHED] evaluate %q: %v", rec.FunctionID, err)
		return 0
	}
	if res.Kind == evaluator.KindInvalid {
		log.Printf("[SCHED] predicate %q returned an unsupported type", rec.FunctionID)
	}
	return res.Weight()
}

// #endregion drain
