package world

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/luck"
	"geocoin.ai/internal/sim/view"
	"geocoin.ai/internal/sim/world/kernel/model"
)

// World owns every piece of game state. After Run starts, state is touched
// only from the loop goroutine; before that (and in tests) callers may use
// the methods directly.
type World struct {
	cfg  WorldConfig
	luck luck.Source
	now  func() time.Time

	cells  *model.Registry
	caches *model.Store
	player *model.Player
	minted int
	seq    uint64

	accepted uint64
	rejected uint64

	sessions map[string]*session
	resume   map[string]string
	popups   map[string]model.CellKey

	actionLogger ActionLogger
	snapshotSink chan<- snapshot.SnapshotV1

	join     chan JoinRequest
	leave    chan LeaveRequest
	inbox    chan ActionEnvelope
	query    chan queryReq
	admin    chan adminSnapshotReq
	stop     chan struct{}
	stopOnce sync.Once

	metrics atomic.Value
}

// New builds the world and populates the neighborhood once.
func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	src, err := luck.New(cfg.Luck, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return NewWithSource(cfg, src)
}

// NewWithSource is New with an explicit luck source.
func NewWithSource(cfg WorldConfig, src luck.Source) (*World, error) {
	cfg.applyDefaults()
	if src == nil {
		return nil, fmt.Errorf("nil luck source")
	}
	w := &World{
		cfg:      cfg,
		luck:     src,
		now:      time.Now,
		cells:    model.NewRegistry(),
		caches:   model.NewStore(),
		player:   &model.Player{},
		sessions: map[string]*session{},
		resume:   map[string]string{},
		popups:   map[string]model.CellKey{},
		join:     make(chan JoinRequest, 64),
		leave:    make(chan LeaveRequest, 64),
		inbox:    make(chan ActionEnvelope, 256),
		query:    make(chan queryReq, 16),
		admin:    make(chan adminSnapshotReq, 4),
		stop:     make(chan struct{}),
	}
	w.populate()
	w.publishMetrics()
	return w, nil
}

// populate spawns caches for cells i, j in [-R, R).
func (w *World) populate() {
	r := w.cfg.Radius
	for i := -r; i < r; i++ {
		for j := -r; j < r; j++ {
			if w.luck.Draw(i, j, "spawn") >= w.cfg.SpawnChance {
				continue
			}
			cell := w.cells.Cell(i, j)
			cache := w.caches.Cache(cell)
			n := CoinCount(w.luck.Draw(i, j, "coins"), w.cfg.MaxCoins)
			for s := 0; s < n; s++ {
				cache.Put(model.Coin{Origin: cell.Key(), Serial: s})
			}
			w.minted += n
		}
	}
}

// CoinCount is ceil(draw*max), at least 1 and at most max.
func CoinCount(draw float64, max int) int {
	if max < 1 {
		max = 1
	}
	n := int(math.Ceil(draw * float64(max)))
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) SetActionLogger(l ActionLogger)                 { w.actionLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Seq() uint64 { return w.seq }

// Cell resolves a cell through the registry, creating it if needed.
func (w *World) Cell(i, j int) *model.Cell { return w.cells.Cell(i, j) }

// CacheKeys lists the cells holding a cache, ordered by key.
func (w *World) CacheKeys() []model.CellKey {
	all := w.caches.All()
	out := make([]model.CellKey, 0, len(all))
	for _, c := range all {
		out = append(out, c.Cell.Key())
	}
	return out
}

// CoinsAt returns a copy of the coins in the cache at k.
func (w *World) CoinsAt(k model.CellKey) ([]model.Coin, bool) {
	c, code := w.cacheAt(k)
	if code != "" {
		return nil, false
	}
	return append([]model.Coin(nil), c.Coins...), true
}

func (w *World) Points() int { return w.player.Points }

func (w *World) Inventory() []model.Coin {
	return append([]model.Coin(nil), w.player.Inventory...)
}

func (w *World) MintedCoins() int { return w.minted }

// TotalCoins counts coins in every cache plus the player's inventory.
func (w *World) TotalCoins() int { return w.caches.Coins() + w.player.Holding() }

// CheckConservation fails if coins were created or destroyed after population.
func (w *World) CheckConservation() error {
	if total := w.TotalCoins(); total != w.minted {
		return fmt.Errorf("coin conservation violated: total=%d minted=%d", total, w.minted)
	}
	if w.player.Points != w.player.Holding() {
		return fmt.Errorf("points %d do not mirror inventory %d", w.player.Points, w.player.Holding())
	}
	return nil
}

func (w *World) cacheAt(k model.CellKey) (*model.Cache, string) {
	cell, ok := w.cells.Lookup(k)
	if !ok {
		return nil, protocol.ErrInvalidTarget
	}
	c, ok := w.caches.Lookup(cell)
	if !ok {
		return nil, protocol.ErrInvalidTarget
	}
	return c, ""
}

func (w *World) mapParams() protocol.MapParams {
	return protocol.MapParams{
		Center:      [2]float64{w.cfg.Origin.Lat, w.cfg.Origin.Lng},
		Zoom:        w.cfg.Zoom,
		MinZoom:     w.cfg.MinZoom,
		MaxZoom:     w.cfg.MaxZoom,
		TileURL:     w.cfg.TileURL,
		Attribution: w.cfg.Attribution,
		CellDegrees: w.cfg.CellDegrees,
		Radius:      w.cfg.Radius,
		Player:      view.Player(w.cfg.Origin),
	}
}

func (w *World) markers() []protocol.Marker {
	return view.Markers(w.caches.All(), w.cfg.Origin, w.cfg.CellDegrees)
}

func (w *World) overview() Overview {
	return Overview{
		WorldID: w.cfg.ID,
		Seq:     w.seq,
		Map:     w.mapParams(),
		Markers: w.markers(),
		Status:  view.Status(w.player),
		Metrics: w.Metrics(),
	}
}
