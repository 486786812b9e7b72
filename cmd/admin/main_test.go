package main

import (
	"testing"

	"geocoin.ai/internal/persistence/snapshot"
)

func TestParseCell(t *testing.T) {
	i, j, err := parseCell(" -3, 4 ")
	if err != nil || i != -3 || j != 4 {
		t.Fatalf("got %d,%d %v", i, j, err)
	}
	for _, bad := range []string{"", "1", "a,b", "1,2,3"} {
		if _, _, err := parseCell(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSummarize(t *testing.T) {
	snap := snapshot.SnapshotV1{
		Minted: 3,
		Caches: []snapshot.CacheV1{{Cell: [2]int{0, -1}, Coins: []snapshot.CoinV1{{Origin: [2]int{0, -1}, Serial: 1}, {Origin: [2]int{2, 2}, Serial: 0}}}},
		Player: snapshot.PlayerV1{Points: 1, Inventory: []snapshot.CoinV1{{Origin: [2]int{0, -1}, Serial: 0}}},
	}
	s := summarize(snap)
	if len(s.Caches) != 1 || s.Caches[0].Coins[1] != "2:2#0" {
		t.Fatalf("caches: %+v", s.Caches)
	}
	if s.Points != 1 || s.Inventory[0] != "0:-1#0" {
		t.Fatalf("inventory: %+v", s)
	}
}
