package worldtest

import (
	"testing"

	"geocoin.ai/internal/protocol"
	world "geocoin.ai/internal/sim/world"
)

func fullBoard() world.WorldConfig {
	return world.WorldConfig{ID: "test", Seed: 42, Radius: 1, SpawnChance: 1, MaxCoins: 6}
}

func TestPopups_ArePerSession(t *testing.T) {
	h := NewHarness(t, fullBoard(), "alice")
	bob := h.Join("bob").SessionID

	if ack := h.Act(protocol.ActOpen, [2]int{0, 0}); !ack.Accepted {
		t.Fatalf("alice open: %+v", ack)
	}
	if ack := h.ActFor(bob, protocol.ActMsg{Action: protocol.ActOpen, Cell: [2]int{-1, -1}}); !ack.Accepted {
		t.Fatalf("bob open: %+v", ack)
	}

	before := h.Overview().Markers
	if ack := h.Act(protocol.ActCollect, [2]int{0, 0}); !ack.Accepted {
		t.Fatalf("alice collect: %+v", ack)
	}

	alice := h.LastState()
	if alice.Popup == nil || alice.Popup.Cell != [2]int{0, 0} {
		t.Fatalf("alice popup: %+v", alice.Popup)
	}
	bobState := h.LastStateFor(bob)
	if bobState.Popup == nil || bobState.Popup.Cell != [2]int{-1, -1} {
		t.Fatalf("bob popup: %+v", bobState.Popup)
	}
	// Both see the shared player status.
	if alice.Status.Points != 1 || bobState.Status.Points != 1 {
		t.Fatalf("points: alice=%d bob=%d", alice.Status.Points, bobState.Status.Points)
	}
	// Bob's popup now offers a deposit.
	var canDeposit bool
	for _, b := range bobState.Popup.Buttons {
		if b.ID == "deposit" && b.Enabled {
			canDeposit = true
		}
	}
	if !canDeposit {
		t.Fatalf("bob should see deposit enabled: %+v", bobState.Popup.Buttons)
	}

	var was, now int
	for _, m := range before {
		if m.Cell == [2]int{0, 0} {
			was = m.Coins
		}
	}
	for _, m := range h.Overview().Markers {
		if m.Cell == [2]int{0, 0} {
			now = m.Coins
		}
	}
	if now != was-1 {
		t.Fatalf("marker coins: was=%d now=%d", was, now)
	}
}

func TestPopups_CloseAndResume(t *testing.T) {
	h := NewHarness(t, fullBoard(), "alice")
	token := h.sessions[h.DefaultSessionID].Token

	h.Act(protocol.ActOpen, [2]int{-1, 0})
	if ack := h.Act(protocol.ActClose, [2]int{}); !ack.Accepted {
		t.Fatalf("close: %+v", ack)
	}
	if st := h.LastState(); st.Popup != nil {
		t.Fatalf("popup after close: %+v", st.Popup)
	}

	h.Act(protocol.ActOpen, [2]int{-1, 0})
	w := h.Resume(token)
	if w.SessionID != h.DefaultSessionID {
		t.Fatalf("resume gave %q", w.SessionID)
	}
	if w.Popup == nil || w.Popup.Cell != [2]int{-1, 0} {
		t.Fatalf("resumed while still joined keeps the popup: %+v", w.Popup)
	}
}
