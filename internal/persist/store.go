package persist

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id  TEXT PRIMARY KEY,
	label        TEXT,
	play_state   TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	pool         TEXT,
	event        TEXT NOT NULL,
	detail       TEXT,
	created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store keeps play-state snapshots and the decision log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region snapshot-record
// SnapshotRecord is one stored play-state snapshot.
type SnapshotRecord struct {
	SnapshotID string
	Label      string
	PlayState  []byte
	CreatedAt  time.Time
}

// #endregion snapshot-record

// #region save-snapshot
// SaveSnapshot stores a play-state blob under a fresh id and returns the id.
func (s *Store) SaveSnapshot(label string, playState []byte) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO snapshots (snapshot_id, label, play_state, created_at)
		 VALUES (?, ?, ?, ?)`,
		id, nullIfEmpty(label), string(playState), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// #endregion save-snapshot

// #region get-snapshot
// GetSnapshot retrieves a snapshot by id.
func (s *Store) GetSnapshot(id string) (SnapshotRecord, error) {
	var rec SnapshotRecord
	var label sql.NullString
	var playState string
	var createdStr string

	err := s.db.QueryRow(
		`SELECT snapshot_id, label, play_state, created_at
		 FROM snapshots WHERE snapshot_id = ?`, id,
	).Scan(&rec.SnapshotID, &label, &playState, &createdStr)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	if label.Valid {
		rec.Label = label.String
	}
	rec.PlayState = []byte(playState)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// LatestSnapshot returns the most recently saved snapshot.
func (s *Store) LatestSnapshot() (SnapshotRecord, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT snapshot_id FROM snapshots ORDER BY created_at DESC, snapshot_id LIMIT 1`,
	).Scan(&id)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return s.GetSnapshot(id)
}

// #endregion get-snapshot

// #region list-snapshots
// ListSnapshots returns the most recent snapshots, newest first.
func (s *Store) ListSnapshots(limit int) ([]SnapshotRecord, error) {
	rows, err := s.db.Query(
		`SELECT snapshot_id, label, play_state, created_at
		 FROM snapshots ORDER BY created_at DESC, snapshot_id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		var label sql.NullString
		var playState string
		var createdStr string
		if err := rows.Scan(&rec.SnapshotID, &label, &playState, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if label.Valid {
			rec.Label = label.String
		}
		rec.PlayState = []byte(playState)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-snapshots

// #region prune
// Prune deletes all but the newest keep snapshots. Returns how many rows
// were removed.
func (s *Store) Prune(keep int) (int, error) {
	res, err := s.db.Exec(
		`DELETE FROM snapshots WHERE snapshot_id NOT IN (
			SELECT snapshot_id FROM snapshots ORDER BY created_at DESC, snapshot_id LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return int(n), nil
}

// #endregion prune

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
