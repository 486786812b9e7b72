package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Seq uint64 `json:"seq"`

	Cells         int `json:"cells"`
	Caches        int `json:"caches"`
	CoinsInCaches int `json:"coins_in_caches"`
	CoinsHeld     int `json:"coins_held"`
	Minted        int `json:"minted"`

	Sessions   int `json:"sessions"`
	OpenPopups int `json:"open_popups"`

	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`

	QueueDepths QueueDepths `json:"queue_depths"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (w *World) publishMetrics() {
	w.metrics.Store(WorldMetrics{
		Seq:           w.seq,
		Cells:         w.cells.Len(),
		Caches:        w.caches.Len(),
		CoinsInCaches: w.caches.Coins(),
		CoinsHeld:     w.player.Holding(),
		Minted:        w.minted,
		Sessions:      len(w.sessions),
		OpenPopups:    len(w.popups),
		Accepted:      w.accepted,
		Rejected:      w.rejected,
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
	})
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
