// Package view renders game state into the UI descriptions sent to clients.
// Every function is pure: it reads only its arguments.
package view

import (
	"fmt"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world/kernel/model"
)

const (
	ButtonCollect = "collect"
	ButtonDeposit = "deposit"

	PlayerLabel = "You are here!"
)

func Coin(c model.Coin) protocol.CoinView {
	return protocol.CoinView{
		ID:     c.ID(),
		Origin: [2]int{c.Origin.I, c.Origin.J},
		Serial: c.Serial,
	}
}

func Coins(coins []model.Coin) []protocol.CoinView {
	out := make([]protocol.CoinView, 0, len(coins))
	for _, c := range coins {
		out = append(out, Coin(c))
	}
	return out
}

// Status renders the status panel.
func Status(p *model.Player) protocol.StatusView {
	if p == nil {
		return protocol.StatusView{Text: "Coins: 0", Inventory: []protocol.CoinView{}}
	}
	return protocol.StatusView{
		Text:      fmt.Sprintf("Coins: %d", p.Points),
		Points:    p.Points,
		Inventory: Coins(p.Inventory),
	}
}

// Popup renders an open cache popup: one collect button per coin and a
// deposit button enabled iff the player holds a coin.
func Popup(c *model.Cache, p *model.Player) protocol.PopupView {
	k := c.Cell.Key()
	buttons := make([]protocol.ButtonView, 0, len(c.Coins)+1)
	for _, coin := range c.Coins {
		buttons = append(buttons, protocol.ButtonView{
			ID:      ButtonCollect,
			Label:   ButtonCollect,
			Enabled: true,
			Coin:    coin.ID(),
		})
	}
	if len(c.Coins) == 0 {
		buttons = append(buttons, protocol.ButtonView{ID: ButtonCollect, Label: ButtonCollect})
	}
	buttons = append(buttons, protocol.ButtonView{
		ID:      ButtonDeposit,
		Label:   ButtonDeposit,
		Enabled: p != nil && p.Holding() > 0,
	})
	return protocol.PopupView{
		Cell:    [2]int{k.I, k.J},
		Title:   fmt.Sprintf("Cache at %d, %d", k.I, k.J),
		Count:   len(c.Coins),
		Coins:   Coins(c.Coins),
		Buttons: buttons,
	}
}

func Marker(c *model.Cache, origin model.LatLng, cellDegrees float64) protocol.Marker {
	b := c.Cell.Bounds(origin, cellDegrees)
	k := c.Cell.Key()
	return protocol.Marker{
		ID:       c.Cell.ID(),
		Cell:     [2]int{k.I, k.J},
		Position: [2]float64{b.SouthWest.Lat, b.SouthWest.Lng},
		Bounds: [2][2]float64{
			{b.SouthWest.Lat, b.SouthWest.Lng},
			{b.NorthEast.Lat, b.NorthEast.Lng},
		},
		Coins: len(c.Coins),
	}
}

func Markers(caches []*model.Cache, origin model.LatLng, cellDegrees float64) []protocol.Marker {
	out := make([]protocol.Marker, 0, len(caches))
	for _, c := range caches {
		out = append(out, Marker(c, origin, cellDegrees))
	}
	return out
}

// Player marks the player standing at the origin.
func Player(origin model.LatLng) protocol.PlayerMarker {
	return protocol.PlayerMarker{
		Position: [2]float64{origin.Lat, origin.Lng},
		Label:    PlayerLabel,
	}
}
