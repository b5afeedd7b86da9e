package logging

import "time"

// #region decision-entry
// DecisionEntry is one row in the decision_log table: a scheduler decision
// (refresh started, pool completed, pick, reset, save, load) with enough
// detail to reconstruct why a hand looked the way it did.
type DecisionEntry struct {
	Pool      string
	Event     string // "refresh" | "complete" | "pick" | "mark_played" | "reset" | "save" | "load"
	Detail    string
	CreatedAt time.Time
}

// #endregion decision-entry
