package indexdb

import (
	"context"
	"database/sql"
)

// ActionRow is one indexed action.
type ActionRow struct {
	RunID     string `json:"run_id"`
	Seq       uint64 `json:"seq"`
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
	Cell      [2]int `json:"cell"`
	Accepted  bool   `json:"accepted"`
	Code      string `json:"code,omitempty"`
	Digest    string `json:"digest"`
}

// ActionsAtCell lists actions that targeted cell (i, j) across runs, in the
// order they were indexed.
func (s *SQLiteIndex) ActionsAtCell(ctx context.Context, i, j int, limit int) ([]ActionRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, session_id, action, cell_i, cell_j, accepted, code, digest
		   FROM actions WHERE cell_i = ? AND cell_j = ? ORDER BY rowid LIMIT ?`, i, j, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionRow
	for rows.Next() {
		var (
			r        ActionRow
			accepted int
			code     sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.Seq, &r.SessionID, &r.Action, &r.Cell[0], &r.Cell[1], &accepted, &code, &r.Digest); err != nil {
			return nil, err
		}
		r.Accepted = accepted != 0
		r.Code = code.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the seq and path of the newest recorded snapshot.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (seq uint64, path string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT seq, path FROM snapshots ORDER BY rowid DESC LIMIT 1`)
	if err := row.Scan(&seq, &path); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}
	return seq, path, true, nil
}

// Meta reads one meta value.
func (s *SQLiteIndex) Meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SnapshotRow is one recorded snapshot.
type SnapshotRow struct {
	RunID   string `json:"run_id"`
	Seq     uint64 `json:"seq"`
	Path    string `json:"path"`
	Digest  string `json:"digest"`
	Caches  int    `json:"caches"`
	Coins   int    `json:"coins"`
	Points  int    `json:"points"`
	Written string `json:"written_at"`
}

// Snapshots lists recorded snapshots, most recently indexed first.
func (s *SQLiteIndex) Snapshots(ctx context.Context, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, path, digest, caches, coins, points, written_at FROM snapshots ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var r SnapshotRow
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Path, &r.Digest, &r.Caches, &r.Coins, &r.Points, &r.Written); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
