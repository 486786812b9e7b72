package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"geocoin.ai/internal/sim/world/kernel/model"
)

// Digest hashes the game state that collect/deposit can change, plus the
// parameters that shaped the initial board. Sessions and popups are excluded.
func (w *World) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, w.cfg.Seed)
	digestWriteU64(h, &tmp, math.Float64bits(w.cfg.Origin.Lat))
	digestWriteU64(h, &tmp, math.Float64bits(w.cfg.Origin.Lng))
	digestWriteU64(h, &tmp, math.Float64bits(w.cfg.CellDegrees))
	digestWriteI64(h, &tmp, int64(w.cfg.Radius))
	digestWriteI64(h, &tmp, int64(w.minted))

	all := w.caches.All()
	digestWriteU64(h, &tmp, uint64(len(all)))
	for _, c := range all {
		k := c.Cell.Key()
		digestWriteI64(h, &tmp, int64(k.I))
		digestWriteI64(h, &tmp, int64(k.J))
		digestCoins(h, &tmp, c.Coins)
	}

	digestWriteI64(h, &tmp, int64(w.player.Points))
	digestCoins(h, &tmp, w.player.Inventory)

	return hex.EncodeToString(h.Sum(nil))
}

func digestCoins(h hashWriter, tmp *[8]byte, coins []model.Coin) {
	digestWriteU64(h, tmp, uint64(len(coins)))
	for _, c := range coins {
		digestWriteI64(h, tmp, int64(c.Origin.I))
		digestWriteI64(h, tmp, int64(c.Origin.J))
		digestWriteI64(h, tmp, int64(c.Serial))
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
