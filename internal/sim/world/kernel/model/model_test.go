package model

import "testing"

func TestRegistry_SameCoordinatesSamePointer(t *testing.T) {
	r := NewRegistry()
	a := r.Cell(2, -3)
	b := r.Cell(2, -3)
	if a != b {
		t.Fatalf("expected canonical cell pointer")
	}
	if r.Cell(-3, 2) == a {
		t.Fatalf("expected distinct cell for swapped coordinates")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 cells, got %d", r.Len())
	}
	if _, ok := r.Lookup(CellKey{I: 9, J: 9}); ok {
		t.Fatalf("lookup must not create cells")
	}
}

func TestRegistry_KeysSorted(t *testing.T) {
	r := NewRegistry()
	r.Cell(1, 0)
	r.Cell(-1, 5)
	r.Cell(-1, -5)
	keys := r.Keys()
	want := []CellKey{{I: -1, J: -5}, {I: -1, J: 5}, {I: 1, J: 0}}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d]=%v want %v", i, keys[i], want[i])
		}
	}
}

func TestCell_Bounds(t *testing.T) {
	r := NewRegistry()
	c := r.Cell(2, -1)
	b := c.Bounds(LatLng{Lat: 10, Lng: 20}, 0.5)
	if b.SouthWest != (LatLng{Lat: 11, Lng: 19.5}) {
		t.Fatalf("unexpected south west: %+v", b.SouthWest)
	}
	if b.NorthEast != (LatLng{Lat: 11.5, Lng: 20}) {
		t.Fatalf("unexpected north east: %+v", b.NorthEast)
	}
}

func TestStore_LazyCache(t *testing.T) {
	r := NewRegistry()
	s := NewStore()
	cell := r.Cell(0, 0)
	if _, ok := s.Lookup(cell); ok {
		t.Fatalf("expected no cache before first visit")
	}
	c1 := s.Cache(cell)
	c2 := s.Cache(r.Cell(0, 0))
	if c1 != c2 {
		t.Fatalf("expected same cache for same cell")
	}
	if s.Len() != 1 {
		t.Fatalf("expected one cache, got %d", s.Len())
	}
}

func TestCache_TakePreservesOrder(t *testing.T) {
	k := CellKey{I: 1, J: 1}
	c := &Cache{Coins: []Coin{{Origin: k, Serial: 0}, {Origin: k, Serial: 1}, {Origin: k, Serial: 2}}}
	coin, ok := c.Take(1)
	if !ok || coin.Serial != 1 {
		t.Fatalf("Take(1) = %+v, %v", coin, ok)
	}
	if got := c.Serials(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("unexpected serials after take: %v", got)
	}
	if _, ok := c.Take(1); ok {
		t.Fatalf("expected second take of same serial to fail")
	}
	if !c.TakeCoin(Coin{Origin: k, Serial: 2}) {
		t.Fatalf("TakeCoin failed")
	}
	if c.TakeCoin(Coin{Origin: CellKey{I: 5}, Serial: 0}) {
		t.Fatalf("TakeCoin must match origin too")
	}
}

func TestPlayer_ReleaseIsLIFO(t *testing.T) {
	var p Player
	if _, ok := p.Release(); ok {
		t.Fatalf("expected empty release to fail")
	}
	p.Hold(Coin{Serial: 1})
	p.Hold(Coin{Serial: 2})
	if p.Points != 2 || p.Holding() != 2 {
		t.Fatalf("points=%d holding=%d", p.Points, p.Holding())
	}
	c, ok := p.Release()
	if !ok || c.Serial != 2 {
		t.Fatalf("expected last held coin, got %+v", c)
	}
	if p.Points != 1 {
		t.Fatalf("expected points 1, got %d", p.Points)
	}
}

func TestCoin_ID(t *testing.T) {
	c := Coin{Origin: CellKey{I: -1, J: 4}, Serial: 3}
	if c.ID() != "-1:4#3" {
		t.Fatalf("unexpected id %q", c.ID())
	}
	back, ok := ParseCoin(c.ID())
	if !ok || back != c {
		t.Fatalf("ParseCoin mismatch: %+v %v", back, ok)
	}
}
