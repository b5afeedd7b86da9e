package storylet

// #region record
// Record is one registered storylet: a content unit id plus the bookkeeping
// the scheduler needs to decide whether it can appear in a hand.
type Record struct {
	ID               string
	FunctionID       string // predicate function evaluated during refresh
	GroupGate        string // shared gate function for the whole group, "" when absent
	DiscardAfterPlay bool
	Played           bool
}

// #endregion record

// #region pool-state
// PoolState tracks where a pool is in its refresh lifecycle.
type PoolState int

const (
	NeedsRefresh PoolState = iota
	Refreshing
	RefreshComplete
)

func (s PoolState) String() string {
	switch s {
	case NeedsRefresh:
		return "needs_refresh"
	case Refreshing:
		return "refreshing"
	case RefreshComplete:
		return "refresh_complete"
	default:
		return "unknown"
	}
}

// #endregion pool-state
