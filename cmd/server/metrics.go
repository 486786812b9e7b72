package main

import (
	"fmt"
	"io"

	"geocoin.ai/internal/persistence/indexdb"
	"geocoin.ai/internal/sim/world"
)

// writeMetrics emits the minimal Prometheus exposition format.
func writeMetrics(out io.Writer, worldID string, m world.WorldMetrics, idx *indexdb.Stats) {
	gauge := func(name, help string, v int) {
		fmt.Fprintf(out, "# HELP %s %s\n", name, help)
		fmt.Fprintf(out, "# TYPE %s gauge\n", name)
		fmt.Fprintf(out, "%s{world=%q} %d\n", name, worldID, v)
	}

	fmt.Fprintf(out, "# HELP geocoin_world_seq Actions applied so far.\n")
	fmt.Fprintf(out, "# TYPE geocoin_world_seq counter\n")
	fmt.Fprintf(out, "geocoin_world_seq{world=%q} %d\n", worldID, m.Seq)

	gauge("geocoin_world_caches", "Caches on the board.", m.Caches)
	gauge("geocoin_world_coins_in_caches", "Coins sitting in caches.", m.CoinsInCaches)
	gauge("geocoin_world_coins_held", "Coins in the player's inventory.", m.CoinsHeld)
	gauge("geocoin_world_coins_minted", "Coins created at population.", m.Minted)
	gauge("geocoin_world_sessions", "Connected client sessions.", m.Sessions)
	gauge("geocoin_world_open_popups", "Sessions with a popup open.", m.OpenPopups)

	fmt.Fprintf(out, "# HELP geocoin_world_actions_total Actions by outcome.\n")
	fmt.Fprintf(out, "# TYPE geocoin_world_actions_total counter\n")
	fmt.Fprintf(out, "geocoin_world_actions_total{world=%q,outcome=%q} %d\n", worldID, "accepted", m.Accepted)
	fmt.Fprintf(out, "geocoin_world_actions_total{world=%q,outcome=%q} %d\n", worldID, "rejected", m.Rejected)

	fmt.Fprintf(out, "# HELP geocoin_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE geocoin_world_queue_depth gauge\n")
	fmt.Fprintf(out, "geocoin_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(out, "geocoin_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "geocoin_world_queue_depth{world=%q,queue=%q} %d\n", worldID, "leave", m.QueueDepths.Leave)

	if idx == nil {
		return
	}
	gauge("geocoin_index_queue_depth", "Index writer backlog.", idx.QueueDepth)
	fmt.Fprintf(out, "# HELP geocoin_index_dropped_total Index writes dropped because the writer fell behind.\n")
	fmt.Fprintf(out, "# TYPE geocoin_index_dropped_total counter\n")
	fmt.Fprintf(out, "geocoin_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "action", idx.DropActionTotal)
	fmt.Fprintf(out, "geocoin_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", idx.DropSnapshotTotal)
}
