package model

import (
	"sort"

	"geocoin.ai/internal/sim/world/logic/ids"
)

// CellKey is the grid offset of a cell from the origin.
type CellKey struct {
	I int
	J int
}

func (k CellKey) String() string { return ids.CellID(k.I, k.J) }

func ParseCellKey(id string) (CellKey, bool) {
	i, j, ok := ids.ParseCellID(id)
	if !ok {
		return CellKey{}, false
	}
	return CellKey{I: i, J: j}, true
}

// Less orders keys by I then J.
func (k CellKey) Less(o CellKey) bool {
	if k.I != o.I {
		return k.I < o.I
	}
	return k.J < o.J
}

type LatLng struct {
	Lat float64
	Lng float64
}

type Bounds struct {
	SouthWest LatLng
	NorthEast LatLng
}

// Cell is immutable once created. Obtain cells through a Registry so that
// equal coordinates share one pointer.
type Cell struct {
	key CellKey
}

func (c *Cell) Key() CellKey { return c.key }
func (c *Cell) I() int       { return c.key.I }
func (c *Cell) J() int       { return c.key.J }
func (c *Cell) ID() string   { return c.key.String() }

// Corner is the south-west corner of the cell.
func (c *Cell) Corner(origin LatLng, cellDegrees float64) LatLng {
	return LatLng{
		Lat: origin.Lat + float64(c.key.I)*cellDegrees,
		Lng: origin.Lng + float64(c.key.J)*cellDegrees,
	}
}

func (c *Cell) Bounds(origin LatLng, cellDegrees float64) Bounds {
	sw := c.Corner(origin, cellDegrees)
	return Bounds{
		SouthWest: sw,
		NorthEast: LatLng{Lat: sw.Lat + cellDegrees, Lng: sw.Lng + cellDegrees},
	}
}

// Registry canonicalizes cells by coordinates.
type Registry struct {
	cells map[CellKey]*Cell
}

func NewRegistry() *Registry {
	return &Registry{cells: map[CellKey]*Cell{}}
}

func (r *Registry) Cell(i, j int) *Cell {
	k := CellKey{I: i, J: j}
	if c := r.cells[k]; c != nil {
		return c
	}
	c := &Cell{key: k}
	r.cells[k] = c
	return c
}

// Lookup returns the cell only if it was created before.
func (r *Registry) Lookup(k CellKey) (*Cell, bool) {
	c, ok := r.cells[k]
	return c, ok
}

func (r *Registry) Len() int { return len(r.cells) }

func (r *Registry) Keys() []CellKey {
	out := make([]CellKey, 0, len(r.cells))
	for k := range r.cells {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
