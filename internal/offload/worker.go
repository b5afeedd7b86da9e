package offload

import (
	"fmt"
	"log"

	"github.com/wildwinter/storydeck/internal/deck"
	"github.com/wildwinter/storydeck/internal/evaluator"
	"github.com/wildwinter/storydeck/internal/persist"
	"github.com/wildwinter/storydeck/internal/storylet"
)

// #region worker

// worker owns the offloaded side: a mirror registry and a private evaluator
// instance. It is confined to a single goroutine; requests arrive on one
// channel and are processed strictly in order.
type worker struct {
	reg    *deck.Registry
	ev     evaluator.Evaluator
	budget int
	events chan<- Event
	done   <-chan struct{}
}

func (w *worker) run(requests <-chan interface{}) {
	defer close(w.events)
	for req := range requests {
		w.handle(req)
	}
	log.Printf("[WORKER] shutting down")
}

// emit delivers an event unless the channel has been closed, in which case
// the event is dropped so the worker never blocks on a reader that is gone.
func (w *worker) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.done:
		log.Printf("[WORKER] dropped %T event after close", ev)
	}
}

// handle dispatches one request. A panic in a handler is converted to an
// ErrorEvent so one bad request cannot take the worker down.
func (w *worker) handle(req interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WORKER] recovered: %v", r)
			w.emit(ErrorEvent{Message: fmt.Sprintf("worker: %v", r)})
		}
	}()

	switch m := req.(type) {
	case initRequest:
		w.init(m)
	case registerRequest:
		w.register(m)
	case refreshRequest:
		w.refresh(m)
	case markPlayedRequest:
		w.reg.MarkPlayed(m.id, m.pools...)
	case resetRequest:
		w.reg.Reset(m.pools...)
	case saveRequest:
		w.save(m)
	case loadRequest:
		w.load(m)
	default:
		w.emit(ErrorEvent{Message: fmt.Sprintf("worker: unknown request %T", req)})
	}
}

// #endregion worker

// #region handlers

func (w *worker) init(m initRequest) {
	if m.snapshot != "" {
		if err := w.ev.LoadState(m.snapshot); err != nil {
			w.emit(ErrorEvent{Message: fmt.Sprintf("init evaluator state: %v", err)})
			return
		}
	}
	w.emit(InitComplete{RequestID: m.requestID})
}

func (w *worker) register(m registerRequest) {
	recs := make([]storylet.Record, 0, len(m.records))
	for _, spec := range m.records {
		recs = append(recs, storylet.Record{
			ID:               spec.ID,
			FunctionID:       deck.FunctionID(spec.ID),
			GroupGate:        spec.GroupGate,
			DiscardAfterPlay: spec.DiscardAfterPlay,
		})
	}
	w.reg.AddRecords(m.pool, recs)
	log.Printf("[WORKER] mirrored %d records into pool %q", len(recs), m.pool)
}

// refresh loads the shipped evaluator state, builds queues, then drains them
// budget records at a time, emitting a completion event per pool the moment
// its queue empties.
func (w *worker) refresh(m refreshRequest) {
	if m.stateToken != "" {
		if err := w.ev.LoadState(m.stateToken); err != nil {
			w.emit(ErrorEvent{Message: fmt.Sprintf("load evaluator state: %v", err)})
			return
		}
	}
	started := w.reg.BeginRefresh(m.pools, m.gateActive)
	if len(started) == 0 {
		return
	}
	for w.reg.AnyRefreshing() {
		for _, name := range w.reg.Drain(w.ev, w.budget) {
			p, _ := w.reg.Lookup(name)
			w.emit(RefreshComplete{
				Pool:         name,
				Generation:   m.gens[name],
				Hand:         p.Hand(),
				WeightedHand: p.WeightedHand(),
			})
		}
	}
}

func (w *worker) save(m saveRequest) {
	blob, err := persist.Encode(w.reg.SavePlayState())
	if err != nil {
		w.emit(ErrorEvent{Message: fmt.Sprintf("encode play state: %v", err)})
		return
	}
	w.emit(SaveResult{RequestID: m.requestID, Blob: blob})
}

func (w *worker) load(m loadRequest) {
	snap, err := persist.Decode(m.blob)
	if err != nil {
		w.emit(ErrorEvent{Message: fmt.Sprintf("decode play state: %v", err)})
		return
	}
	w.reg.LoadPlayState(snap)
}

// #endregion handlers
