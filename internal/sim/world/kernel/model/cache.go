package model

import "sort"

// Cache is the ordered list of coins currently stored at a cell.
type Cache struct {
	Cell  *Cell
	Coins []Coin
}

func (c *Cache) Len() int { return len(c.Coins) }

// Find returns the index of the coin with the given serial, or -1.
// Deposited coins keep their origin, so a serial may repeat across origins;
// the first match in cache order wins.
func (c *Cache) Find(serial int) int {
	for i, coin := range c.Coins {
		if coin.Serial == serial {
			return i
		}
	}
	return -1
}

// Take removes the coin with the given serial, preserving the order of the rest.
func (c *Cache) Take(serial int) (Coin, bool) {
	i := c.Find(serial)
	if i < 0 {
		return Coin{}, false
	}
	coin := c.Coins[i]
	c.Coins = append(c.Coins[:i], c.Coins[i+1:]...)
	return coin, true
}

// TakeCoin removes an exact coin (origin and serial).
func (c *Cache) TakeCoin(want Coin) bool {
	for i, coin := range c.Coins {
		if coin == want {
			c.Coins = append(c.Coins[:i], c.Coins[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cache) Put(coin Coin) {
	c.Coins = append(c.Coins, coin)
}

func (c *Cache) Serials() []int {
	out := make([]int, len(c.Coins))
	for i, coin := range c.Coins {
		out[i] = coin.Serial
	}
	return out
}

// Store holds one cache per cell, keyed by the canonical cell pointer.
type Store struct {
	caches map[*Cell]*Cache
}

func NewStore() *Store {
	return &Store{caches: map[*Cell]*Cache{}}
}

// Cache returns the cache for cell, creating an empty one on first visit.
func (s *Store) Cache(cell *Cell) *Cache {
	if c := s.caches[cell]; c != nil {
		return c
	}
	c := &Cache{Cell: cell}
	s.caches[cell] = c
	return c
}

func (s *Store) Lookup(cell *Cell) (*Cache, bool) {
	c, ok := s.caches[cell]
	return c, ok
}

func (s *Store) Len() int { return len(s.caches) }

// All returns every cache ordered by cell key.
func (s *Store) All() []*Cache {
	out := make([]*Cache, 0, len(s.caches))
	for _, c := range s.caches {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell.Key().Less(out[j].Cell.Key()) })
	return out
}

// Coins counts the coins across all caches.
func (s *Store) Coins() int {
	n := 0
	for _, c := range s.caches {
		n += len(c.Coins)
	}
	return n
}
