// Package orchestrator is the public face of the storylet engine: it owns
// the registry, runs gate evaluation, schedules refresh work through a
// backend, and exposes selection, tag queries, and play-state persistence.
// All methods run in the orchestrating context; only the offload worker, if
// enabled, runs elsewhere.
package orchestrator

import (
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/wildwinter/storydeck/internal/deck"
	"github.com/wildwinter/storydeck/internal/evaluator"
	"github.com/wildwinter/storydeck/internal/gate"
	"github.com/wildwinter/storydeck/internal/logging"
	"github.com/wildwinter/storydeck/internal/offload"
	"github.com/wildwinter/storydeck/internal/persist"
	"github.com/wildwinter/storydeck/internal/storylet"
	"github.com/wildwinter/storydeck/internal/tags"
)

// Errors re-exported so callers never import the deck package directly.
var (
	ErrNotReady  = deck.ErrNotReady
	ErrEmptyHand = deck.ErrEmptyHand
)

// #region options

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithBudget sets how many predicate evaluations each refreshing pool gets
// per tick.
func WithBudget(n int) Option {
	return func(o *Orchestrator) { o.budget = n }
}

// WithPoolReady installs a callback fired once per pool per refresh, from
// inside Tick, when that pool reaches RefreshComplete.
func WithPoolReady(fn func(pool string)) Option {
	return func(o *Orchestrator) { o.onReady = fn }
}

// WithRand sets the selection RNG. Tests pass a seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithOffload moves refresh work to a worker goroutine built around its own
// evaluator from factory. Gate evaluation still runs here.
func WithOffload(factory offload.EvaluatorFactory) Option {
	return func(o *Orchestrator) { o.offloadFactory = factory }
}

// WithDecisionLog mirrors scheduler decisions into the decision_log table.
func WithDecisionLog(db *sql.DB) Option {
	return func(o *Orchestrator) { o.db = db }
}

// #endregion options

// #region orchestrator

// Orchestrator ties the engine together for one narrative session.
type Orchestrator struct {
	ev      evaluator.Evaluator
	reg     *deck.Registry
	budget  int
	rng     *rand.Rand
	onReady func(pool string)
	db      *sql.DB

	offloadFactory offload.EvaluatorFactory
	backend        backend
}

// New builds an orchestrator around the given evaluator.
func New(ev evaluator.Evaluator, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		ev:     ev,
		reg:    deck.NewRegistry(),
		budget: deck.DefaultBudget,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if o.offloadFactory != nil {
		ch, err := offload.Open(o.offloadFactory, o.budget)
		if err != nil {
			return nil, err
		}
		token, err := ev.SerializeState()
		if err != nil {
			ch.Close()
			return nil, fmt.Errorf("serialize evaluator state: %w", err)
		}
		ch.Init(uuid.New().String(), token)
		o.backend = &channelBackend{reg: o.reg, ev: ev, ch: ch, gen: make(map[string]uint64)}
		log.Printf("[SCHED] refresh offloaded to worker, budget %d", o.budget)
	} else {
		o.backend = &directBackend{reg: o.reg, ev: ev, budget: o.budget}
	}
	return o, nil
}

// Close releases the backend. Safe to call once, after which the
// orchestrator must not be used.
func (o *Orchestrator) Close() {
	o.backend.close()
}

// #endregion orchestrator

// #region registration

// AddStorylets registers the named group's storylets into a pool ("" means
// the default pool) and mirrors them to the backend. Returns how many were
// registered.
func (o *Orchestrator) AddStorylets(group, pool string) int {
	if pool == "" {
		pool = deck.DefaultPool
	}
	recs := o.reg.RegisterGroup(o.ev, group, pool)
	if len(recs) == 0 {
		return 0
	}
	specs := make([]offload.RecordSpec, 0, len(recs))
	for _, rec := range recs {
		specs = append(specs, offload.RecordSpec{
			ID:               rec.ID,
			GroupGate:        rec.GroupGate,
			DiscardAfterPlay: rec.DiscardAfterPlay,
		})
	}
	o.backend.register(pool, specs)
	return len(recs)
}

// RegisterDirectives applies every register:<name>[,<pool>] directive the
// evaluator exposes. Returns the total number of storylets registered.
func (o *Orchestrator) RegisterDirectives() int {
	total := 0
	for _, raw := range o.ev.GlobalDirectives() {
		d, ok := tags.ParseDirective(raw)
		if !ok {
			continue
		}
		total += o.AddStorylets(d.Name, d.Pool)
	}
	return total
}

// #endregion registration

// #region refresh

// Refresh starts a refresh for the named pools (none means every pool).
// Group gates are evaluated here, once per distinct gate, before any work is
// scheduled. Pools already refreshing are left alone.
func (o *Orchestrator) Refresh(pools ...string) error {
	gates := gate.EvaluateAll(o.ev, o.reg.GateIDs(pools))
	if err := o.backend.refresh(pools, gates); err != nil {
		return err
	}
	o.logDecision("", "refresh", detailPools(pools))
	return nil
}

// Tick advances refresh work by one budget slice and returns the pools that
// reached RefreshComplete on this tick, firing the pool-ready callback for
// each.
func (o *Orchestrator) Tick() []string {
	completed := o.backend.tick()
	for _, name := range completed {
		o.logDecision(name, "complete", "")
		if o.onReady != nil {
			o.onReady(name)
		}
	}
	return completed
}

// AllReady reports whether at least one pool exists and every pool has a
// fresh hand.
func (o *Orchestrator) AllReady() bool {
	return o.reg.AllReady()
}

// #endregion refresh

// #region selection

// Pick draws one storylet from the pool's weighted hand and marks it played.
func (o *Orchestrator) Pick(pool string) (string, error) {
	if pool == "" {
		pool = deck.DefaultPool
	}
	id, err := o.reg.Pick(pool, o.rng)
	if err != nil {
		return "", err
	}
	o.backend.markPlayed(id, []string{pool})
	o.logDecision(pool, "pick", id)
	return id, nil
}

// MarkPlayed flags a storylet as played without drawing it. No pools means
// every pool that contains the id.
func (o *Orchestrator) MarkPlayed(id string, pools ...string) {
	o.reg.MarkPlayed(id, pools...)
	o.backend.markPlayed(id, pools)
	o.logDecision(detailPools(pools), "mark_played", id)
}

// Reset clears play-state for the named pools (none means all). Hands are
// dropped; a refresh is required before the next pick.
func (o *Orchestrator) Reset(pools ...string) {
	o.reg.Reset(pools...)
	o.backend.reset(pools)
	o.logDecision(detailPools(pools), "reset", "")
}

// Hand returns the pool's current hand. Valid only once the pool has
// completed its refresh.
func (o *Orchestrator) Hand(pool string) ([]string, error) {
	p := o.reg.Ensure(pool)
	if p.State() != storylet.RefreshComplete {
		log.Printf("[SCHED] hand read from pool %q in state %s", p.Name(), p.State())
		return nil, ErrNotReady
	}
	return p.Hand(), nil
}

// WeightedHand returns the pool's current weighted hand.
func (o *Orchestrator) WeightedHand(pool string) ([]string, error) {
	p := o.reg.Ensure(pool)
	if p.State() != storylet.RefreshComplete {
		log.Printf("[SCHED] weighted hand read from pool %q in state %s", p.Name(), p.State())
		return nil, ErrNotReady
	}
	return p.WeightedHand(), nil
}

// #endregion selection

// #region queries

// GetTag looks up a tag on a storylet id, returning fallback when absent.
func (o *Orchestrator) GetTag(id, key string, fallback tags.Value) tags.Value {
	return o.reg.GetTag(id, key, fallback)
}

// EligibleWithTag returns current-hand ids whose tag matches value.
func (o *Orchestrator) EligibleWithTag(key string, value tags.Value, pools ...string) []string {
	return o.reg.EligibleWithTag(key, value, pools...)
}

// FirstEligibleWithTag returns the first current-hand id whose tag matches.
func (o *Orchestrator) FirstEligibleWithTag(key string, value tags.Value, pools ...string) (string, bool) {
	return o.reg.FirstEligibleWithTag(key, value, pools...)
}

// #endregion queries

// #region persistence

// Save encodes the current play-state of every pool.
func (o *Orchestrator) Save() ([]byte, error) {
	blob, err := persist.Encode(o.reg.SavePlayState())
	if err != nil {
		return nil, err
	}
	o.logDecision("", "save", "")
	return blob, nil
}

// Load replaces play-state from a blob produced by Save. Every pool is reset
// first; pools and ids the current content no longer has are dropped.
func (o *Orchestrator) Load(blob []byte) error {
	snap, err := persist.Decode(blob)
	if err != nil {
		return err
	}
	o.reg.LoadPlayState(snap)
	o.backend.load(blob)
	o.logDecision("", "load", "")
	return nil
}

// #endregion persistence

// #region decision-log

func (o *Orchestrator) logDecision(pool, event, detail string) {
	if o.db == nil {
		return
	}
	err := logging.LogDecision(o.db, logging.DecisionEntry{Pool: pool, Event: event, Detail: detail})
	if err != nil {
		log.Printf("[SCHED] decision log: %v", err)
	}
}

func detailPools(pools []string) string {
	if len(pools) == 0 {
		return ""
	}
	out := pools[0]
	for _, p := range pools[1:] {
		out += "," + p
	}
	return out
}

// #endregion decision-log
