package world

import (
	"context"
	"errors"

	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/world/kernel/model"
)

type adminSnapshotReq struct {
	Resp chan adminSnapshotResp
}

type adminSnapshotResp struct {
	Seq uint64
	Err string
}

// RequestSnapshot asks the world loop goroutine to hand a snapshot to the sink.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (seq uint64, err error) {
	if w == nil || w.admin == nil {
		return 0, errors.New("admin snapshot not available")
	}
	resp := make(chan adminSnapshotResp, 1)
	req := adminSnapshotReq{Resp: resp}

	select {
	case w.admin <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Seq, errors.New(r.Err)
		}
		return r.Seq, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleAdminSnapshot(req adminSnapshotReq) {
	errStr := ""
	if w.snapshotSink == nil {
		errStr = "snapshot sink not configured"
	} else {
		select {
		case w.snapshotSink <- w.ExportSnapshot():
		default:
			errStr = "snapshot sink busy"
		}
	}
	if req.Resp != nil {
		req.Resp <- adminSnapshotResp{Seq: w.seq, Err: errStr}
	}
}

func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	all := w.caches.All()
	caches := make([]snapshot.CacheV1, 0, len(all))
	for _, c := range all {
		k := c.Cell.Key()
		caches = append(caches, snapshot.CacheV1{Cell: [2]int{k.I, k.J}, Coins: coinsV1(c.Coins)})
	}
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			RunID:   w.cfg.RunID,
			Seq:     w.seq,
			Digest:  w.Digest(),
		},
		Seed:        w.cfg.Seed,
		Luck:        w.cfg.Luck,
		Origin:      [2]float64{w.cfg.Origin.Lat, w.cfg.Origin.Lng},
		CellDegrees: w.cfg.CellDegrees,
		Radius:      w.cfg.Radius,
		SpawnChance: w.cfg.SpawnChance,
		MaxCoins:    w.cfg.MaxCoins,
		Minted:      w.minted,
		Caches:      caches,
		Player: snapshot.PlayerV1{
			Points:    w.player.Points,
			Inventory: coinsV1(w.player.Inventory),
		},
	}
}

// ConfigFromSnapshot rebuilds the config a snapshot's world was started with.
func ConfigFromSnapshot(s snapshot.SnapshotV1) WorldConfig {
	return WorldConfig{
		ID:          s.Header.WorldID,
		RunID:       s.Header.RunID,
		Seed:        s.Seed,
		Luck:        s.Luck,
		Origin:      model.LatLng{Lat: s.Origin[0], Lng: s.Origin[1]},
		CellDegrees: s.CellDegrees,
		Radius:      s.Radius,
		SpawnChance: s.SpawnChance,
		MaxCoins:    s.MaxCoins,
	}
}

func coinsV1(coins []model.Coin) []snapshot.CoinV1 {
	out := make([]snapshot.CoinV1, 0, len(coins))
	for _, c := range coins {
		out = append(out, snapshot.CoinV1{Origin: [2]int{c.Origin.I, c.Origin.J}, Serial: c.Serial})
	}
	return out
}
