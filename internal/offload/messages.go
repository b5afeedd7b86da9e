// Package offload runs the refresh scheduler in a dedicated worker goroutine
// behind typed request and event channels. The orchestrating context sends
// registration, refresh, and play-state messages; the worker owns its own
// registry and evaluator and answers with completion events. Messages on a
// channel are handled strictly in order.
package offload

// #region requests

// RecordSpec is the wire shape of one deck entry sent to the worker so it can
// mirror the orchestrating registry. The predicate function id is derived
// from the storylet id on the worker side.
type RecordSpec struct {
	ID               string
	GroupGate        string
	DiscardAfterPlay bool
}

type initRequest struct {
	requestID string
	snapshot  string
}

type registerRequest struct {
	pool    string
	records []RecordSpec
}

type refreshRequest struct {
	pools      []string
	stateToken string
	gateActive map[string]bool
	gens       map[string]uint64
}

type markPlayedRequest struct {
	id    string
	pools []string
}

type resetRequest struct {
	pools []string
}

type saveRequest struct {
	requestID string
}

type loadRequest struct {
	blob []byte
}

// #endregion requests

// #region events

// Event is a message from the worker back to the orchestrating context.
type Event interface{ isEvent() }

// InitComplete acknowledges that the worker's evaluator accepted the initial
// state snapshot.
type InitComplete struct {
	RequestID string
}

// RefreshComplete reports that one pool finished refreshing, carrying the
// computed hands for the orchestrating registry to install. Generation
// echoes the value sent with the refresh request so the orchestrating side
// can discard completions for refreshes it has since abandoned.
type RefreshComplete struct {
	Pool         string
	Generation   uint64
	Hand         []string
	WeightedHand []string
}

// SaveResult carries the encoded play-state blob for a save request.
type SaveResult struct {
	RequestID string
	Blob      []byte
}

// ErrorEvent reports a worker-side failure. The worker stays alive; the
// failed request is abandoned.
type ErrorEvent struct {
	Message string
}

func (InitComplete) isEvent() {}
func (RefreshComplete) isEvent() {}
func (SaveResult) isEvent() {}
func (ErrorEvent) isEvent() {}

// #endregion events
