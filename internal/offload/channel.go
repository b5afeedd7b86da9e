package offload

import (
	"fmt"

	"github.com/wildwinter/storydeck/internal/deck"
	"github.com/wildwinter/storydeck/internal/evaluator"
)

// EvaluatorFactory builds a fresh evaluator for the worker goroutine, seeded
// from a state token ("" means default state). Each execution context gets
// its own instance; evaluators are never shared across goroutines.
type EvaluatorFactory func(stateToken string) (evaluator.Evaluator, error)

// channelDepth bounds the request and event queues. The orchestrating
// context pumps events every tick, so the buffer only has to absorb one
// burst of completions.
const channelDepth = 64

// #region channel

// Channel is the orchestrating context's handle on the offloaded worker. All
// methods enqueue and return immediately; results come back on Events().
type Channel struct {
	requests chan interface{}
	events   chan Event
	done     chan struct{}
}

// Open builds the worker's evaluator through factory, starts the worker
// goroutine, and returns the connected channel.
func Open(factory EvaluatorFactory, budget int) (*Channel, error) {
	ev, err := factory("")
	if err != nil {
		return nil, fmt.Errorf("build worker evaluator: %w", err)
	}
	if budget <= 0 {
		budget = deck.DefaultBudget
	}

	c := &Channel{
		requests: make(chan interface{}, channelDepth),
		events:   make(chan Event, channelDepth),
		done:     make(chan struct{}),
	}
	w := &worker{
		reg:    deck.NewRegistry(),
		ev:     ev,
		budget: budget,
		events: c.events,
		done:   c.done,
	}
	go w.run(c.requests)
	return c, nil
}

// Events returns the worker's event stream. The channel is closed after
// Close once the worker drains its remaining requests.
func (c *Channel) Events() <-chan Event { return c.events }

// Close stops accepting requests and lets the worker exit after finishing
// what is already queued. Events the orchestrating side never pumped are
// dropped so the worker can always shut down.
func (c *Channel) Close() {
	close(c.requests)
	close(c.done)
}

// #endregion channel

// #region senders

// Init seeds the worker's evaluator with an initial state snapshot. The
// worker answers with an InitComplete carrying the same request id.
func (c *Channel) Init(requestID, snapshot string) {
	c.requests <- initRequest{requestID: requestID, snapshot: snapshot}
}

// Register mirrors a batch of deck records into the worker's registry.
func (c *Channel) Register(pool string, records []RecordSpec) {
	c.requests <- registerRequest{pool: pool, records: records}
}

// Refresh asks the worker to rebuild hands for the named pools (empty means
// every pool) using the shipped evaluator state and gate decisions. One
// RefreshComplete event arrives per pool, echoing that pool's entry from
// gens.
func (c *Channel) Refresh(pools []string, stateToken string, gateActive map[string]bool, gens map[string]uint64) {
	c.requests <- refreshRequest{pools: pools, stateToken: stateToken, gateActive: gateActive, gens: gens}
}

// MarkPlayed flags id as played in the worker's registry. Empty pools means
// every pool.
func (c *Channel) MarkPlayed(id string, pools ...string) {
	c.requests <- markPlayedRequest{id: id, pools: pools}
}

// Reset clears worker-side play-state for the named pools (empty means all).
func (c *Channel) Reset(pools ...string) {
	c.requests <- resetRequest{pools: pools}
}

// Save asks the worker for an encoded play-state blob; the answer is a
// SaveResult event carrying the same request id.
func (c *Channel) Save(requestID string) {
	c.requests <- saveRequest{requestID: requestID}
}

// Load replaces the worker's play-state from an encoded blob.
func (c *Channel) Load(blob []byte) {
	c.requests <- loadRequest{blob: blob}
}

// #endregion senders
