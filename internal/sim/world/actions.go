package world

import (
	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/view"
	"geocoin.ai/internal/sim/world/kernel/model"
)

// Collect moves the coin with the given serial from the cache at k to the
// end of the player's inventory. An empty cache or unknown serial leaves the
// state unchanged.
func (w *World) Collect(k model.CellKey, serial int) string {
	c, code := w.cacheAt(k)
	if code != "" {
		return code
	}
	coin, ok := c.Take(serial)
	if !ok {
		return protocol.ErrNoResource
	}
	w.player.Hold(coin)
	return ""
}

// CollectCoin is Collect addressed by full coin identity.
func (w *World) CollectCoin(k model.CellKey, coin model.Coin) string {
	c, code := w.cacheAt(k)
	if code != "" {
		return code
	}
	if !c.TakeCoin(coin) {
		return protocol.ErrNoResource
	}
	w.player.Hold(coin)
	return ""
}

// CollectFirst takes the first coin in the cache.
func (w *World) CollectFirst(k model.CellKey) string {
	c, code := w.cacheAt(k)
	if code != "" {
		return code
	}
	if len(c.Coins) == 0 {
		return protocol.ErrNoResource
	}
	return w.CollectCoin(k, c.Coins[0])
}

// Deposit moves the most recently collected coin into the cache at k.
// The coin keeps its origin cell.
func (w *World) Deposit(k model.CellKey) string {
	c, code := w.cacheAt(k)
	if code != "" {
		return code
	}
	coin, ok := w.player.Release()
	if !ok {
		return protocol.ErrNoResource
	}
	c.Put(coin)
	return ""
}

// Apply runs one client action, logs it, and pushes re-rendered state to
// the sessions that need it.
func (w *World) Apply(sessionID string, act protocol.ActMsg) ActionResult {
	code, msg, mutated := w.apply(sessionID, act)
	accepted := code == ""
	w.seq++
	if accepted {
		w.accepted++
	} else {
		w.rejected++
	}

	digest := w.Digest()
	if w.actionLogger != nil {
		_ = w.actionLogger.WriteAction(ActionLogEntry{
			RunID:     w.cfg.RunID,
			Seq:       w.seq,
			UnixMS:    w.now().UnixMilli(),
			WorldID:   w.cfg.ID,
			SessionID: sessionID,
			Act:       act,
			Accepted:  accepted,
			Code:      code,
			Digest:    digest,
		})
	}

	if mutated {
		w.broadcastState()
	} else if accepted {
		w.sendState(sessionID)
	}
	w.publishMetrics()

	return ActionResult{
		Ack: protocol.AckMsg{
			Type:            protocol.TypeAck,
			ProtocolVersion: protocol.Version,
			AckFor:          act.ID,
			Accepted:        accepted,
			Code:            code,
			Message:         msg,
			Seq:             w.seq,
		},
		State: w.stateMsg(sessionID),
	}
}

func (w *World) apply(sessionID string, act protocol.ActMsg) (code, msg string, mutated bool) {
	k := keyOf(act.Cell)
	switch act.Action {
	case protocol.ActOpen:
		if _, code := w.cacheAt(k); code != "" {
			return code, "no cache at " + k.String(), false
		}
		w.popups[sessionID] = k
		return "", "", false

	case protocol.ActClose:
		delete(w.popups, sessionID)
		return "", "", false

	case protocol.ActCollect:
		switch {
		case act.Coin != "":
			coin, ok := model.ParseCoin(act.Coin)
			if !ok {
				return protocol.ErrBadRequest, "bad coin id", false
			}
			code = w.CollectCoin(k, coin)
		case act.Serial != nil:
			code = w.Collect(k, *act.Serial)
		default:
			code = w.CollectFirst(k)
		}
		if code != "" {
			return code, rejectMessage(code, act.Action), false
		}
		w.popups[sessionID] = k
		return "", "", true

	case protocol.ActDeposit:
		if code := w.Deposit(k); code != "" {
			return code, rejectMessage(code, act.Action), false
		}
		w.popups[sessionID] = k
		return "", "", true

	default:
		return protocol.ErrBadRequest, "unknown action " + act.Action, false
	}
}

func rejectMessage(code, action string) string {
	switch code {
	case protocol.ErrInvalidTarget:
		return "no cache at that cell"
	case protocol.ErrNoResource:
		if action == protocol.ActDeposit {
			return "no coins to deposit"
		}
		return "coin not in cache"
	}
	return ""
}

// PopupView renders the cache at k, if there is one.
func (w *World) PopupView(k model.CellKey) (protocol.PopupView, bool) {
	c, code := w.cacheAt(k)
	if code != "" {
		return protocol.PopupView{}, false
	}
	return view.Popup(c, w.player), true
}

func (w *World) stateMsg(sessionID string) protocol.StateMsg {
	m := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Seq:             w.seq,
		Status:          view.Status(w.player),
		Markers:         w.markers(),
	}
	if k, ok := w.popups[sessionID]; ok {
		if pv, ok := w.PopupView(k); ok {
			m.Popup = &pv
		}
	}
	return m
}
