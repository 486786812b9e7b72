package worldtest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"geocoin.ai/internal/protocol"
	world "geocoin.ai/internal/sim/world"
)

// Harness is a small black-box test helper for driving a running world via
// exported APIs:
// - Join() sends a JoinRequest to the loop
// - Act()/ActFor() submit ACT and wait for the ACK
// - Per-session Out channels carry STATE JSON; the newest one is kept
type Harness struct {
	T *testing.T
	W *world.World

	DefaultSessionID string

	ctx      context.Context
	sessions map[string]*session
}

type session struct {
	ID        string
	Token     string
	Out       chan []byte
	lastState protocol.StateMsg
}

func NewHarness(t *testing.T, cfg world.WorldConfig, clientName string) *Harness {
	t.Helper()

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, clientName)
}

// NewHarnessWithWorld starts the loop of an already-constructed world.
func NewHarnessWithWorld(t *testing.T, w *world.World, clientName string) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	h := &Harness{
		T:        t,
		W:        w,
		ctx:      ctx,
		sessions: map[string]*session{},
	}
	h.DefaultSessionID = h.Join(clientName).SessionID
	return h
}

func (h *Harness) Join(name string) protocol.WelcomeMsg {
	h.T.Helper()
	return h.join(name, "")
}

func (h *Harness) Resume(token string) protocol.WelcomeMsg {
	h.T.Helper()
	return h.join("resume", token)
}

func (h *Harness) join(name, token string) protocol.WelcomeMsg {
	h.T.Helper()
	out := make(chan []byte, 16)
	resp := make(chan world.JoinResponse, 1)
	h.W.Join() <- world.JoinRequest{Name: name, ResumeToken: token, Out: out, Resp: resp}

	var jr world.JoinResponse
	select {
	case jr = <-resp:
	case <-time.After(2 * time.Second):
		h.T.Fatalf("join timed out")
	}
	if jr.Welcome.SessionID == "" {
		h.T.Fatalf("join returned empty session id")
	}
	h.sessions[jr.Welcome.SessionID] = &session{ID: jr.Welcome.SessionID, Token: jr.Welcome.ResumeToken, Out: out}
	return jr.Welcome
}

func (h *Harness) Act(action string, cell [2]int) protocol.AckMsg {
	return h.ActFor(h.DefaultSessionID, protocol.ActMsg{Action: action, Cell: cell})
}

func (h *Harness) ActFor(sessionID string, act protocol.ActMsg) protocol.AckMsg {
	h.T.Helper()
	act.Type = protocol.TypeAct
	act.ProtocolVersion = protocol.Version
	res, err := h.W.Submit(h.ctx, sessionID, act)
	if err != nil {
		h.T.Fatalf("submit: %v", err)
	}
	h.drainAllStates()
	return res.Ack
}

func (h *Harness) LastState() protocol.StateMsg {
	return h.LastStateFor(h.DefaultSessionID)
}

func (h *Harness) LastStateFor(sessionID string) protocol.StateMsg {
	h.T.Helper()
	s := h.sessions[sessionID]
	if s == nil {
		h.T.Fatalf("unknown session id: %q", sessionID)
	}
	return s.lastState
}

func (h *Harness) Overview() world.Overview {
	h.T.Helper()
	ov, err := h.W.Overview(h.ctx)
	if err != nil {
		h.T.Fatalf("overview: %v", err)
	}
	return ov
}

// drainAllStates runs after Submit returns, so every STATE the action
// produced is already queued.
func (h *Harness) drainAllStates() {
	h.T.Helper()
	for _, s := range h.sessions {
		h.drainOneState(s)
	}
}

func (h *Harness) drainOneState(s *session) {
	h.T.Helper()
	for {
		select {
		case b := <-s.Out:
			var st protocol.StateMsg
			if err := json.Unmarshal(b, &st); err != nil {
				h.T.Fatalf("unmarshal state: %v", err)
			}
			s.lastState = st
		default:
			return
		}
	}
}
