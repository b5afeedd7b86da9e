package orchestrator

import (
	"fmt"
	"log"

	"github.com/wildwinter/storydeck/internal/deck"
	"github.com/wildwinter/storydeck/internal/evaluator"
	"github.com/wildwinter/storydeck/internal/offload"
	"github.com/wildwinter/storydeck/internal/storylet"
)

// #region backend

// backend is where refresh work actually runs. The direct backend drains
// queues inline on Tick; the channel backend forwards to an offload worker
// and installs its completions. The orchestrating registry is the source of
// truth either way; backends only mirror mutations they need.
type backend interface {
	register(pool string, specs []offload.RecordSpec)
	refresh(pools []string, gates map[string]bool) error
	tick() []string
	markPlayed(id string, pools []string)
	reset(pools []string)
	load(blob []byte)
	close()
}

// #endregion backend

// #region direct

// directBackend runs refresh work inline in the orchestrating context.
type directBackend struct {
	reg    *deck.Registry
	ev     evaluator.Evaluator
	budget int
}

func (d *directBackend) register(pool string, specs []offload.RecordSpec) {}

func (d *directBackend) refresh(pools []string, gates map[string]bool) error {
	d.reg.BeginRefresh(pools, gates)
	return nil
}

func (d *directBackend) tick() []string {
	return d.reg.Drain(d.ev, d.budget)
}

// Local registry mutations are already applied by the orchestrator; there is
// no second copy to keep in sync.
func (d *directBackend) markPlayed(id string, pools []string) {}
func (d *directBackend) reset(pools []string)                 {}
func (d *directBackend) load(blob []byte)                     {}
func (d *directBackend) close()                               {}

// #endregion direct

// #region channel

// channelBackend forwards refresh work to an offload worker. Pools flip to
// Refreshing locally when the request is sent and complete when the worker's
// event is pumped on a later tick. gen carries a per-pool refresh generation:
// each refresh sends the current value and each reset or load bumps it, so a
// completion computed for a refresh the caller has since abandoned is
// recognizably stale and never installed.
type channelBackend struct {
	reg *deck.Registry
	ev  evaluator.Evaluator
	ch  *offload.Channel
	gen map[string]uint64
}

// invalidate retires any in-flight refresh for the named pools (empty means
// every pool).
func (c *channelBackend) invalidate(pools []string) {
	if len(pools) == 0 {
		pools = c.reg.PoolNames()
	}
	for _, name := range pools {
		c.gen[name]++
	}
}

func (c *channelBackend) register(pool string, specs []offload.RecordSpec) {
	c.ch.Register(pool, specs)
}

func (c *channelBackend) refresh(pools []string, gates map[string]bool) error {
	token, err := c.ev.SerializeState()
	if err != nil {
		return fmt.Errorf("serialize evaluator state: %w", err)
	}
	started := c.reg.BeginRemoteRefresh(pools)
	if len(started) == 0 {
		return nil
	}
	gens := make(map[string]uint64, len(started))
	for _, name := range started {
		c.gen[name]++
		gens[name] = c.gen[name]
	}
	c.ch.Refresh(started, token, gates, gens)
	return nil
}

// tick drains whatever events have arrived without blocking. Completions
// are installed only for the refresh the caller still has in flight: wrong
// generation or a pool no longer Refreshing means the refresh was reset or
// superseded, so the computed hand is discarded.
func (c *channelBackend) tick() []string {
	var completed []string
	for {
		select {
		case ev, ok := <-c.ch.Events():
			if !ok {
				return completed
			}
			switch m := ev.(type) {
			case offload.InitComplete:
				log.Printf("[SCHED] worker initialized (request %s)", m.RequestID)
			case offload.RefreshComplete:
				p, ok := c.reg.Lookup(m.Pool)
				if !ok {
					log.Printf("[SCHED] completion for unknown pool %q dropped", m.Pool)
					continue
				}
				if p.State() != storylet.Refreshing || m.Generation != c.gen[m.Pool] {
					log.Printf("[SCHED] stale completion for pool %q dropped", m.Pool)
					continue
				}
				p.ApplyCompletion(m.Hand, m.WeightedHand)
				completed = append(completed, m.Pool)
				log.Printf("[SCHED] pool %q refresh complete, hand size %d", m.Pool, len(m.Hand))
			case offload.ErrorEvent:
				log.Printf("[SCHED] worker error: %s", m.Message)
			case offload.SaveResult:
				// Play-state persistence runs against the orchestrating
				// registry, which sees every mark and reset first.
			}
		default:
			return completed
		}
	}
}

func (c *channelBackend) markPlayed(id string, pools []string) {
	c.ch.MarkPlayed(id, pools...)
}

func (c *channelBackend) reset(pools []string) {
	c.invalidate(pools)
	c.ch.Reset(pools...)
}

func (c *channelBackend) load(blob []byte) {
	// Loading resets every pool first, which abandons in-flight refreshes.
	c.invalidate(nil)
	c.ch.Load(blob)
}

func (c *channelBackend) close() {
	c.ch.Close()
}

// #endregion channel
