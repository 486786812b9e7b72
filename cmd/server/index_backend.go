package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"geocoin.ai/internal/persistence/indexdb"
	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.ActionLogger
	Close() error
	UpsertTuning(worldID string, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	ActionsAtCell(ctx context.Context, i, j int, limit int) ([]indexdb.ActionRow, error)
	Stats() indexdb.Stats
}

func openRuntimeIndex(worldDir, backend string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported GEOCOIN_INDEX_BACKEND: %s", backend)
	}
}

// multiActionLogger fans one entry out to the JSONL log and the index.
type multiActionLogger struct {
	a world.ActionLogger
	b world.ActionLogger
}

func (m multiActionLogger) WriteAction(entry world.ActionLogEntry) error {
	var err error
	if m.a != nil {
		err = m.a.WriteAction(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAction(entry)
	}
	return err
}
