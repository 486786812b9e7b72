package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	WorldID string `yaml:"world_id" json:"world_id"`
	Seed    int64  `yaml:"seed" json:"seed"`
	// Luck is "deterministic" (hash of the cell key) or "random".
	Luck string `yaml:"luck" json:"luck"`

	Origin             Origin  `yaml:"origin" json:"origin"`
	CellDegrees        float64 `yaml:"cell_degrees" json:"cell_degrees"`
	NeighborhoodRadius int     `yaml:"neighborhood_radius" json:"neighborhood_radius"`
	SpawnChance        float64 `yaml:"spawn_chance" json:"spawn_chance"`
	MaxCoins           int     `yaml:"max_coins" json:"max_coins"`

	Map Map `yaml:"map" json:"map"`
}

type Origin struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

type Map struct {
	Zoom        int    `yaml:"zoom" json:"zoom"`
	MinZoom     int    `yaml:"min_zoom" json:"min_zoom"`
	MaxZoom     int    `yaml:"max_zoom" json:"max_zoom"`
	TileURL     string `yaml:"tile_url" json:"tile_url"`
	Attribution string `yaml:"attribution" json:"attribution"`
}

// Defaults are the constants of the classroom deployment.
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		WorldID:            "oakes_classroom",
		Seed:               0,
		Luck:               "deterministic",
		Origin:             Origin{Lat: 36.98949379578401, Lng: -122.06277128548504},
		CellDegrees:        0.0001,
		NeighborhoodRadius: 8,
		SpawnChance:        0.1,
		MaxCoins:           6,
		Map: Map{
			Zoom:        19,
			MinZoom:     19,
			MaxZoom:     19,
			TileURL:     "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: `&copy; <a href="http://www.openstreetmap.org/copyright">OpenStreetMap</a>`,
		},
	}
}

// Load reads path over Defaults, so a file only needs the values it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if strings.TrimSpace(t.WorldID) == "" {
		return fmt.Errorf("world_id is empty")
	}
	if t.CellDegrees <= 0 {
		return fmt.Errorf("cell_degrees must be > 0, got %v", t.CellDegrees)
	}
	if t.NeighborhoodRadius < 0 {
		return fmt.Errorf("neighborhood_radius must be >= 0, got %d", t.NeighborhoodRadius)
	}
	if t.SpawnChance < 0 || t.SpawnChance > 1 {
		return fmt.Errorf("spawn_chance must be within [0,1], got %v", t.SpawnChance)
	}
	if t.MaxCoins < 1 {
		return fmt.Errorf("max_coins must be >= 1, got %d", t.MaxCoins)
	}
	if t.Origin.Lat < -90 || t.Origin.Lat > 90 || t.Origin.Lng < -180 || t.Origin.Lng > 180 {
		return fmt.Errorf("origin out of range: %v,%v", t.Origin.Lat, t.Origin.Lng)
	}
	switch strings.ToLower(t.Luck) {
	case "", "deterministic", "random":
	default:
		return fmt.Errorf("unknown luck %q", t.Luck)
	}
	if t.Map.MinZoom > t.Map.MaxZoom {
		return fmt.Errorf("map min_zoom %d > max_zoom %d", t.Map.MinZoom, t.Map.MaxZoom)
	}
	return nil
}
