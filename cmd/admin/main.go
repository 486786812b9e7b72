package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"geocoin.ai/internal/persistence/indexdb"
	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/world/logic/ids"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "metrics":
			metricsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

// inspectCmd prints a snapshot's caches and inventory as JSON.
func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	snapPath := fs.String("snapshot", "", "path to .snap.zst")
	_ = fs.Parse(args)

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	printJSON(summarize(snap))
}

type cacheSummary struct {
	Cell  [2]int   `json:"cell"`
	Coins []string `json:"coins"`
}

type snapshotSummary struct {
	Header    snapshot.Header `json:"header"`
	Minted    int             `json:"minted"`
	Caches    []cacheSummary  `json:"caches"`
	Points    int             `json:"points"`
	Inventory []string        `json:"inventory"`
}

func summarize(snap snapshot.SnapshotV1) snapshotSummary {
	coinIDs := func(coins []snapshot.CoinV1) []string {
		out := make([]string, 0, len(coins))
		for _, c := range coins {
			out = append(out, ids.CoinID(c.Origin[0], c.Origin[1], c.Serial))
		}
		return out
	}
	s := snapshotSummary{
		Header:    snap.Header,
		Minted:    snap.Minted,
		Points:    snap.Player.Points,
		Inventory: coinIDs(snap.Player.Inventory),
	}
	for _, c := range snap.Caches {
		s.Caches = append(s.Caches, cacheSummary{Cell: c.Cell, Coins: coinIDs(c.Coins)})
	}
	return s
}

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	cell := fs.String("cell", "", "cell filter i,j (actions)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()
	ctx := context.Background()

	switch q {
	case "snapshots":
		rows, err := idx.Snapshots(ctx, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		printJSON(rows)
	case "actions":
		i, j, err := parseCell(*cell)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -cell:", err)
			os.Exit(2)
		}
		rows, err := idx.ActionsAtCell(ctx, i, j, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		printJSON(rows)
	case "tuning":
		v, ok, err := idx.Meta(ctx, "tuning")
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "no tuning recorded")
			os.Exit(1)
		}
		fmt.Println(v)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(snapshots|actions|tuning)")
		os.Exit(2)
	}
}

func parseCell(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want i,j got %q", s)
	}
	i, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	j, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return i, j, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
