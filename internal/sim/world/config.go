package world

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"geocoin.ai/internal/sim/luck"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/sim/world/kernel/model"
)

type WorldConfig struct {
	ID string
	// RunID tells this server run's action log apart from earlier runs in
	// the same data dir. Generated when empty.
	RunID string
	// Seed 0 in random luck mode is replaced by a clock seed, so the board
	// can be rebuilt from the config afterwards.
	Seed int64
	Luck string

	Origin      model.LatLng
	CellDegrees float64
	// Radius R spans cells i, j in [-R, R).
	Radius      int
	SpawnChance float64
	MaxCoins    int

	Zoom        int
	MinZoom     int
	MaxZoom     int
	TileURL     string
	Attribution string
}

func (c *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if c.ID == "" {
		c.ID = d.WorldID
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	if c.Luck == "" {
		c.Luck = luck.ModeDeterministic
	}
	if c.Seed == 0 && strings.EqualFold(strings.TrimSpace(c.Luck), luck.ModeRandom) {
		c.Seed = time.Now().UnixNano()
		if c.Seed == 0 {
			c.Seed = 1
		}
	}
	if c.CellDegrees <= 0 {
		c.CellDegrees = d.CellDegrees
	}
	if c.Radius < 0 {
		c.Radius = 0
	}
	if c.SpawnChance < 0 {
		c.SpawnChance = 0
	}
	if c.SpawnChance > 1 {
		c.SpawnChance = 1
	}
	if c.MaxCoins <= 0 {
		c.MaxCoins = d.MaxCoins
	}
	if c.Zoom <= 0 {
		c.Zoom = d.Map.Zoom
	}
	if c.MinZoom <= 0 {
		c.MinZoom = c.Zoom
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = c.Zoom
	}
	if c.TileURL == "" {
		c.TileURL = d.Map.TileURL
	}
	if c.Attribution == "" {
		c.Attribution = d.Map.Attribution
	}
}

// ConfigFromTuning maps a loaded tuning file onto a world config.
func ConfigFromTuning(t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:          t.WorldID,
		Seed:        t.Seed,
		Luck:        t.Luck,
		Origin:      model.LatLng{Lat: t.Origin.Lat, Lng: t.Origin.Lng},
		CellDegrees: t.CellDegrees,
		Radius:      t.NeighborhoodRadius,
		SpawnChance: t.SpawnChance,
		MaxCoins:    t.MaxCoins,
		Zoom:        t.Map.Zoom,
		MinZoom:     t.Map.MinZoom,
		MaxZoom:     t.Map.MaxZoom,
		TileURL:     t.Map.TileURL,
		Attribution: t.Map.Attribution,
	}
}
