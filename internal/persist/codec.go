// Package persist serializes per-pool play-state and stores snapshots in
// SQLite. Play-state is a flat map of pool name to (id, played) pairs; the
// predicate evaluator's own state is persisted separately by the caller.
package persist

import (
	"encoding/json"
	"fmt"
)

// #region pairs

// PlayedPair is one (id, played) entry, serialized as a two-element JSON
// array to match the wire format: ["<id>", <played>].
type PlayedPair struct {
	ID     string
	Played bool
}

// MarshalJSON implements json.Marshaler.
func (p PlayedPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.ID, p.Played})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PlayedPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("played pair: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("played pair: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return fmt.Errorf("played pair id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Played); err != nil {
		return fmt.Errorf("played pair flag: %w", err)
	}
	return nil
}

// #endregion pairs

// #region snapshot

// Snapshot is the durable play-state structure: pool name → deck entries in
// registration order.
type Snapshot map[string][]PlayedPair

// Encode serializes a snapshot to the persisted JSON format.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode play-state: %w", err)
	}
	return data, nil
}

// Decode parses the persisted JSON format.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode play-state: %w", err)
	}
	return s, nil
}

// #endregion snapshot
