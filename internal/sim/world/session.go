package world

import (
	"encoding/json"

	"github.com/google/uuid"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/view"
)

type session struct {
	id          string
	name        string
	resumeToken string
	out         chan []byte
}

func (w *World) handleJoin(req JoinRequest) {
	var s *session
	if req.ResumeToken != "" {
		if id, ok := w.resume[req.ResumeToken]; ok {
			s = &session{id: id, name: req.Name, resumeToken: req.ResumeToken}
		}
	}
	if s == nil {
		s = &session{
			id:          uuid.NewString(),
			name:        req.Name,
			resumeToken: "resume_" + uuid.NewString(),
		}
		w.resume[s.resumeToken] = s.id
	}
	s.out = req.Out
	w.sessions[s.id] = s

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.id,
		ResumeToken:     s.resumeToken,
		WorldID:         w.cfg.ID,
		Map:             w.mapParams(),
		Markers:         w.markers(),
		Status:          view.Status(w.player),
	}
	if k, ok := w.popups[s.id]; ok {
		if pv, ok := w.PopupView(k); ok {
			welcome.Popup = &pv
		}
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: welcome}
	}
	w.publishMetrics()
}

// handleLeave drops the connection. The client's popup widget goes away with
// it, so the popup is closed; the resume token stays valid. A leave from a
// connection that was already replaced by a resume is ignored.
func (w *World) handleLeave(req LeaveRequest) {
	s := w.sessions[req.SessionID]
	if s == nil {
		return
	}
	if req.Out != nil && s.out != req.Out {
		return
	}
	delete(w.sessions, req.SessionID)
	delete(w.popups, req.SessionID)
	w.publishMetrics()
}

func (w *World) sendState(id string) {
	s := w.sessions[id]
	if s == nil || s.out == nil {
		return
	}
	b, err := json.Marshal(w.stateMsg(id))
	if err != nil {
		return
	}
	sendLatest(s.out, b)
}

func (w *World) broadcastState() {
	for id := range w.sessions {
		w.sendState(id)
	}
}

// sendLatest never blocks the world loop: a full queue loses its oldest
// message. STATE is a full re-render, so only the newest one matters.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
