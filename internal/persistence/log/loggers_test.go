package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world"
)

func TestActionLogger_RotatesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	l := NewActionLogger(dir, "r1")
	clock := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	write := func(seq uint64) {
		t.Helper()
		err := l.WriteAction(world.ActionLogEntry{
			Seq:      seq,
			WorldID:  "w",
			Act:      protocol.ActMsg{Action: protocol.ActDeposit, Cell: [2]int{1, -2}},
			Accepted: seq%2 == 0,
			Digest:   "d",
		})
		if err != nil {
			t.Fatalf("write %d: %v", seq, err)
		}
	}
	write(1)
	write(2)
	clock = clock.Add(2 * time.Minute)
	write(3)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(ActionsDir(dir, "r1"), "actions")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 hourly files, got %v", files)
	}
	if filepath.Base(files[0]) != "actions-2024-05-01-10.jsonl.zst" {
		t.Fatalf("file name: %s", files[0])
	}

	var seqs []uint64
	err = ReadActions(ActionsDir(dir, "r1"), func(e world.ActionLogEntry) error {
		if e.Act.Cell != [2]int{1, -2} {
			t.Fatalf("cell: %+v", e.Act)
		}
		seqs = append(seqs, e.Seq)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 3 {
		t.Fatalf("seqs: %v", seqs)
	}
}

func TestActionLogger_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC) }

	for seq := uint64(1); seq <= 2; seq++ {
		l := NewActionLogger(dir, "r1")
		l.w.now = fixed
		if err := l.WriteAction(world.ActionLogEntry{Seq: seq}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	n := 0
	if err := ReadActions(ActionsDir(dir, "r1"), func(world.ActionLogEntry) error { n++; return nil }); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries across frames, got %d", n)
	}
}

func TestListFiles_IgnoresOthers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"actions-2024-01-01-00.jsonl.zst", "audit-2024-01-01-00.jsonl.zst", "actions.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListFiles(dir, "actions")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("files: %v", files)
	}
}

func TestActionLogger_RunsDoNotShareFiles(t *testing.T) {
	dir := t.TempDir()
	fixed := func() time.Time { return time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC) }

	for _, run := range []string{"r1", "r2"} {
		l := NewActionLogger(dir, run)
		l.w.now = fixed
		for seq := uint64(1); seq <= 3; seq++ {
			if err := l.WriteAction(world.ActionLogEntry{RunID: run, Seq: seq}); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	for _, run := range []string{"r1", "r2"} {
		var seqs []uint64
		err := ReadActions(ActionsDir(dir, run), func(e world.ActionLogEntry) error {
			if e.RunID != run {
				t.Fatalf("%s: entry from run %q", run, e.RunID)
			}
			seqs = append(seqs, e.Seq)
			return nil
		})
		if err != nil {
			t.Fatalf("read %s: %v", run, err)
		}
		if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 3 {
			t.Fatalf("%s seqs: %v", run, seqs)
		}
	}
}
