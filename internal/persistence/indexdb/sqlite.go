package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/sim/world"
)

// SQLiteIndex is a queryable read model of the action log. Seq restarts at 1
// with every server run, so rows are keyed by (run_id, seq). Writes go through
// a buffered channel and are dropped when the writer falls behind; the JSONL
// logs remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAction   atomic.Uint64
	dropSnapshot atomic.Uint64
}

type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropActionTotal   uint64 `json:"drop_action_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

type reqKind int

const (
	reqAction reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	action   world.ActionLogEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	RunID   string
	Seq     uint64
	Path    string
	Seed    int64
	Digest  string
	Caches  int
	Coins   int
	Points  int
	Written string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS actions (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			unix_ms INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			action TEXT NOT NULL,
			cell_i INTEGER NOT NULL,
			cell_j INTEGER NOT NULL,
			serial INTEGER,
			coin TEXT,
			accepted INTEGER NOT NULL,
			code TEXT,
			digest TEXT NOT NULL,
			act_json TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_session_seq ON actions(session_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_cell_seq ON actions(cell_i, cell_j, seq);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			digest TEXT NOT NULL,
			caches INTEGER NOT NULL,
			coins INTEGER NOT NULL,
			points INTEGER NOT NULL,
			written_at TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropActionTotal:   s.dropAction.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

func (s *SQLiteIndex) WriteAction(entry world.ActionLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAction, action: entry}:
	default:
		s.dropAction.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		RunID:   snap.Header.RunID,
		Seq:     snap.Header.Seq,
		Path:    path,
		Seed:    snap.Seed,
		Digest:  snap.Header.Digest,
		Caches:  len(snap.Caches),
		Coins:   snap.Coins(),
		Points:  snap.Player.Points,
		Written: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertTuning stores the tuning actually applied, as canonical JSON.
func (s *SQLiteIndex) UpsertTuning(worldID string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", "2"},
		{"world_id", worldID},
		{"tuning", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAction, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(run_id,seq,unix_ms,session_id,action,cell_i,cell_j,serial,coin,accepted,code,digest,act_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(run_id,seq,path,seed,digest,caches,coins,points,written_at) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertAction != nil {
			_ = insertAction.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAction:
			a := r.action
			if insertAction == nil {
				break
			}
			actJSON, _ := json.Marshal(a.Act)
			var serial any
			if a.Act.Serial != nil {
				serial = *a.Act.Serial
			}
			if _, err := tx.Stmt(insertAction).Exec(
				a.RunID,
				int64(a.Seq),
				a.UnixMS,
				a.SessionID,
				a.Act.Action,
				a.Act.Cell[0], a.Act.Cell[1],
				serial,
				a.Act.Coin,
				boolInt(a.Accepted),
				a.Code,
				a.Digest,
				string(actJSON),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot == nil {
				break
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(
				sn.RunID,
				int64(sn.Seq),
				sn.Path,
				sn.Seed,
				sn.Digest,
				sn.Caches,
				sn.Coins,
				sn.Points,
				sn.Written,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		// Commit when the batch is full, stale, or the queue has drained.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
