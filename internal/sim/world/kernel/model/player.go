package model

// Player is the single fixed player. Points mirrors len(Inventory).
type Player struct {
	Points    int
	Inventory []Coin
}

func (p *Player) Holding() int { return len(p.Inventory) }

func (p *Player) Hold(c Coin) {
	p.Inventory = append(p.Inventory, c)
	p.Points++
}

// Release pops the most recently held coin.
func (p *Player) Release() (Coin, bool) {
	n := len(p.Inventory)
	if n == 0 {
		return Coin{}, false
	}
	c := p.Inventory[n-1]
	p.Inventory = p.Inventory[:n-1]
	p.Points--
	return c, true
}
