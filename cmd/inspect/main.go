package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/wildwinter/storydeck/internal/logging"
	"github.com/wildwinter/storydeck/internal/persist"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to storydeck.db")
	last := flag.Int("last", 20, "show N most recent rows")
	snapshot := flag.String("snapshot", "", "show single snapshot detail")
	decisions := flag.Bool("decisions", false, "show the decision log instead of snapshots")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/storydeck.db [--last N] [--snapshot id] [--decisions] [--json]")
		os.Exit(2)
	}

	store, err := persist.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *snapshot != "":
		err = runSnapshotDetail(store, *snapshot, *jsonOut)
	case *decisions:
		err = runDecisionList(store, *last, *jsonOut)
	default:
		err = runSnapshotList(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region snapshots

type snapshotRow struct {
	SnapshotID string `json:"snapshot_id"`
	Label      string `json:"label,omitempty"`
	Pools      int    `json:"pools"`
	Storylets  int    `json:"storylets"`
	Played     int    `json:"played"`
	CreatedAt  string `json:"created_at"`
}

func buildRow(rec persist.SnapshotRecord) snapshotRow {
	row := snapshotRow{
		SnapshotID: rec.SnapshotID,
		Label:      rec.Label,
		CreatedAt:  rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	snap, err := persist.Decode(rec.PlayState)
	if err != nil {
		return row
	}
	row.Pools = len(snap)
	for _, pairs := range snap {
		row.Storylets += len(pairs)
		for _, pair := range pairs {
			if pair.Played {
				row.Played++
			}
		}
	}
	return row
}

func runSnapshotList(store *persist.Store, last int, jsonOut bool) error {
	records, err := store.ListSnapshots(last)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no snapshots found")
		return nil
	}

	rows := make([]snapshotRow, len(records))
	for i, rec := range records {
		rows[i] = buildRow(rec)
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-16s  %5s  %9s  %6s  %s\n",
		"Snapshot", "Label", "Pools", "Storylets", "Played", "Time")
	for _, r := range rows {
		label := r.Label
		if label == "" {
			label = "—"
		}
		fmt.Printf("%-12s  %-16s  %5d  %9d  %6d  %s\n",
			shortID(r.SnapshotID), label, r.Pools, r.Storylets, r.Played, r.CreatedAt)
	}
	return nil
}

func runSnapshotDetail(store *persist.Store, id string, jsonOut bool) error {
	rec, err := store.GetSnapshot(id)
	if err != nil {
		return err
	}
	snap, err := persist.Decode(rec.PlayState)
	if err != nil {
		return fmt.Errorf("decode play state: %w", err)
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"snapshot_id": rec.SnapshotID,
			"label":       rec.Label,
			"created_at":  rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
			"play_state":  json.RawMessage(rec.PlayState),
		})
	}

	fmt.Printf("Snapshot: %s\n", rec.SnapshotID)
	if rec.Label != "" {
		fmt.Printf("Label:    %s\n", rec.Label)
	}
	fmt.Printf("Created:  %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))
	for pool, pairs := range snap {
		fmt.Printf("\n%s:\n", pool)
		for _, pair := range pairs {
			mark := " "
			if pair.Played {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, pair.ID)
		}
	}
	return nil
}

// #endregion snapshots

// #region decisions

func runDecisionList(store *persist.Store, last int, jsonOut bool) error {
	entries, err := logging.RecentDecisions(store.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}
	if jsonOut {
		return printJSON(entries)
	}

	fmt.Printf("%-12s  %-12s  %-24s  %s\n", "Pool", "Event", "Detail", "Time")
	for _, e := range entries {
		pool := e.Pool
		if pool == "" {
			pool = "—"
		}
		detail := e.Detail
		if detail == "" {
			detail = "—"
		}
		fmt.Printf("%-12s  %-12s  %-24s  %s\n",
			pool, e.Event, detail, e.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion decisions

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
