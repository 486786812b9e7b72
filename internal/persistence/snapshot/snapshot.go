package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	// RunID names the server run whose action log led to this state.
	RunID string `json:"run_id,omitempty"`
	// Seq is the number of actions applied when the snapshot was taken.
	Seq    uint64 `json:"seq"`
	Digest string `json:"digest"`
}

// SnapshotV1 is an offline export of a running game. The server never loads
// one back; cmd/replay uses it to check a session's action log.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed        int64      `json:"seed"`
	Luck        string     `json:"luck"`
	Origin      [2]float64 `json:"origin"`
	CellDegrees float64    `json:"cell_degrees"`
	Radius      int        `json:"radius"`
	SpawnChance float64    `json:"spawn_chance"`
	MaxCoins    int        `json:"max_coins"`

	Minted int       `json:"minted"`
	Caches []CacheV1 `json:"caches"`
	Player PlayerV1  `json:"player"`
}

type CoinV1 struct {
	Origin [2]int `json:"origin"`
	Serial int    `json:"serial"`
}

type CacheV1 struct {
	Cell  [2]int   `json:"cell"`
	Coins []CoinV1 `json:"coins"`
}

type PlayerV1 struct {
	Points    int      `json:"points"`
	Inventory []CoinV1 `json:"inventory"`
}

// Coins counts coins in caches plus the player's inventory.
func (s SnapshotV1) Coins() int {
	n := len(s.Player.Inventory)
	for _, c := range s.Caches {
		n += len(c.Coins)
	}
	return n
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// Header line is duplicated inside the gob body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
