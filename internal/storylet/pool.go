package storylet

// #region pool
// Pool owns a deck of storylet records, the current hand and weighted hand,
// and the pending work queue for an in-flight refresh. Hand and weighted hand
// are valid reads only while the pool is RefreshComplete; callers enforce
// that through the registry. A Pool is not safe for concurrent use — each
// execution context owns its own.
type Pool struct {
	name     string
	deck     map[string]*Record
	order    []string // deck iteration order (registration order)
	hand     []string
	weighted []string
	queue    []*Record
	state    PoolState
}

// NewPool creates an empty pool in NeedsRefresh.
func NewPool(name string) *Pool {
	return &Pool{
		name: name,
		deck: make(map[string]*Record),
	}
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// State returns the pool's lifecycle state.
func (p *Pool) State() PoolState { return p.state }

// Size returns the number of registered records.
func (p *Pool) Size() int { return len(p.deck) }

// #endregion pool

// #region deck-access

// Get returns the record for id, if registered.
func (p *Pool) Get(id string) (*Record, bool) {
	rec, ok := p.deck[id]
	return rec, ok
}

// Records returns the deck in registration order.
func (p *Pool) Records() []*Record {
	out := make([]*Record, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.deck[id])
	}
	return out
}

// Add registers a record, overwriting any previous registration of the same
// id. Registration never changes played state: an overwrite keeps the
// existing flag.
func (p *Pool) Add(rec Record) {
	if prev, ok := p.deck[rec.ID]; ok {
		rec.Played = prev.Played
		p.deck[rec.ID] = &rec
		return
	}
	p.deck[rec.ID] = &rec
	p.order = append(p.order, rec.ID)
}

// #endregion deck-access

// #region hand

// Hand returns a copy of the current hand.
func (p *Pool) Hand() []string {
	out := make([]string, len(p.hand))
	copy(out, p.hand)
	return out
}

// WeightedHand returns a copy of the current weighted hand.
func (p *Pool) WeightedHand() []string {
	out := make([]string, len(p.weighted))
	copy(out, p.weighted)
	return out
}

// #endregion hand

// #region refresh-lifecycle

// BeginRefresh builds the pending queue from deck records whose group gate is
// active, clears the hand, and moves the pool to Refreshing. gateActive is
// consulted only for records that carry a gate.
func (p *Pool) BeginRefresh(gateActive func(gate string) bool) {
	p.hand = nil
	p.weighted = nil
	p.queue = nil
	for _, id := range p.order {
		rec := p.deck[id]
		if rec.GroupGate != "" && !gateActive(rec.GroupGate) {
			continue
		}
		p.queue = append(p.queue, rec)
	}
	p.state = Refreshing
}

// BeginRemoteRefresh clears the hand and moves the pool to Refreshing without
// building a local queue. Used when the work queue lives in an offloaded
// worker and results arrive as a completion message.
func (p *Pool) BeginRemoteRefresh() {
	p.hand = nil
	p.weighted = nil
	p.queue = nil
	p.state = Refreshing
}

// TakeFromQueue removes and returns up to n records from the pending queue.
func (p *Pool) TakeFromQueue(n int) []*Record {
	if n > len(p.queue) {
		n = len(p.queue)
	}
	taken := p.queue[:n]
	p.queue = p.queue[n:]
	return taken
}

// QueueLen returns the number of records still pending.
func (p *Pool) QueueLen() int { return len(p.queue) }

// AppendEligible records an id as eligible: once in the hand and weight times
// in the weighted hand. Non-positive weights are ignored.
func (p *Pool) AppendEligible(id string, weight int) {
	if weight <= 0 {
		return
	}
	p.hand = append(p.hand, id)
	for i := 0; i < weight; i++ {
		p.weighted = append(p.weighted, id)
	}
}

// FinishRefresh moves the pool to RefreshComplete.
func (p *Pool) FinishRefresh() {
	p.queue = nil
	p.state = RefreshComplete
}

// ApplyCompletion installs a hand computed elsewhere and moves the pool to
// RefreshComplete.
func (p *Pool) ApplyCompletion(hand, weighted []string) {
	p.hand = append([]string(nil), hand...)
	p.weighted = append([]string(nil), weighted...)
	p.queue = nil
	p.state = RefreshComplete
}

// #endregion refresh-lifecycle

// #region play-state

// MarkPlayed sets the played flag on id. Returns false when the id is not in
// the deck.
func (p *Pool) MarkPlayed(id string) bool {
	rec, ok := p.deck[id]
	if !ok {
		return false
	}
	rec.Played = true
	return true
}

// Reset clears played flags, the hand, the weighted hand, and any in-flight
// queue, and moves the pool back to NeedsRefresh.
func (p *Pool) Reset() {
	for _, rec := range p.deck {
		rec.Played = false
	}
	p.hand = nil
	p.weighted = nil
	p.queue = nil
	p.state = NeedsRefresh
}

// #endregion play-state
