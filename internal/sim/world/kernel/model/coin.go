package model

import "geocoin.ai/internal/sim/world/logic/ids"

// Coin keeps the cell it was minted in for its whole life. Serial is unique
// within that origin cell.
type Coin struct {
	Origin CellKey
	Serial int
}

func (c Coin) ID() string { return ids.CoinID(c.Origin.I, c.Origin.J, c.Serial) }

func ParseCoin(id string) (Coin, bool) {
	i, j, serial, ok := ids.ParseCoinID(id)
	if !ok {
		return Coin{}, false
	}
	return Coin{Origin: CellKey{I: i, J: j}, Serial: serial}, true
}
