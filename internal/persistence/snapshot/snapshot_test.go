package snapshot

import (
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "7.snap.zst")
	snap := SnapshotV1{
		Header:      Header{Version: Version, WorldID: "w", Seq: 7, Digest: "abc"},
		Seed:        42,
		Luck:        "deterministic",
		Origin:      [2]float64{36.98, -122.06},
		CellDegrees: 0.0001,
		Radius:      2,
		SpawnChance: 0.5,
		MaxCoins:    5,
		Minted:      4,
		Caches: []CacheV1{
			{Cell: [2]int{-1, 0}, Coins: []CoinV1{{Origin: [2]int{-1, 0}, Serial: 0}, {Origin: [2]int{-1, 0}, Serial: 2}}},
			{Cell: [2]int{1, 1}, Coins: []CoinV1{}},
		},
		Player: PlayerV1{Points: 2, Inventory: []CoinV1{{Origin: [2]int{-1, 0}, Serial: 1}, {Origin: [2]int{1, 1}, Serial: 0}}},
	}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h != snap.Header {
		t.Fatalf("header mismatch: %+v", h)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Header != snap.Header || got.Seed != 42 || got.Radius != 2 || got.Minted != 4 {
		t.Fatalf("scalar mismatch: %+v", got)
	}
	if got.Coins() != 4 || got.Coins() != got.Minted {
		t.Fatalf("expected 4 coins, got %d", got.Coins())
	}
	if got.Player.Inventory[1].Origin != [2]int{1, 1} {
		t.Fatalf("inventory mismatch: %+v", got.Player.Inventory)
	}
}

func TestReadSnapshot_Missing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "missing.snap.zst")); err == nil {
		t.Fatalf("expected error for missing snapshot")
	}
}
