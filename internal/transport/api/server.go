// Package api serves the game over plain HTTP/JSON for clients that do not
// hold a WebSocket open. Every request goes through the world loop.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"geocoin.ai/internal/persistence/indexdb"
	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world"
)

// SessionID is the popup session shared by all HTTP callers.
const SessionID = "http"

// History answers per-cell action history queries.
type History interface {
	ActionsAtCell(ctx context.Context, i, j int, limit int) ([]indexdb.ActionRow, error)
}

type Server struct {
	world   *world.World
	history History
	log     *log.Logger
}

// NewServer builds the API. history may be nil.
func NewServer(w *world.World, history History, logger *log.Logger) *Server {
	return &Server{world: w, history: history, log: logger}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type collectBody struct {
	Serial *int   `json:"serial,omitempty"`
	Coin   string `json:"coin,omitempty"`
}

// Routes mounts the API under /v1.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/map", s.handleMap)
		r.Get("/state", s.handleState)
		r.Route("/caches/{i}/{j}", func(r chi.Router) {
			r.Get("/", s.handleOpen)
			r.Post("/collect", s.handleCollect)
			r.Post("/deposit", s.handleDeposit)
			r.Get("/history", s.handleHistory)
		})
	})
	return r
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	ov, err := s.world.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrWorldBusy, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"world_id": ov.WorldID,
		"map":      ov.Map,
		"markers":  ov.Markers,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ov, err := s.world.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrWorldBusy, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"world_id": ov.WorldID,
		"seq":      ov.Seq,
		"status":   ov.Status,
		"metrics":  ov.Metrics,
	})
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	cell, ok := cellParam(w, r)
	if !ok {
		return
	}
	s.submit(w, r, protocol.ActMsg{Action: protocol.ActOpen, Cell: cell})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	cell, ok := cellParam(w, r)
	if !ok {
		return
	}
	var body collectBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest, "invalid JSON body")
		return
	}
	s.submit(w, r, protocol.ActMsg{Action: protocol.ActCollect, Cell: cell, Serial: body.Serial, Coin: body.Coin})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	cell, ok := cellParam(w, r)
	if !ok {
		return
	}
	s.submit(w, r, protocol.ActMsg{Action: protocol.ActDeposit, Cell: cell})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	cell, ok := cellParam(w, r)
	if !ok {
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, protocol.ErrBadRequest, "history index disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.history.ActionsAtCell(r.Context(), cell[0], cell[1], limit)
	if err != nil {
		if s.log != nil {
			s.log.Printf("history %v: %v", cell, err)
		}
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, "history query failed")
		return
	}
	if rows == nil {
		rows = []indexdb.ActionRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cell": cell, "actions": rows})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, act protocol.ActMsg) {
	act.Type = protocol.TypeAct
	act.ProtocolVersion = protocol.Version
	act.ID = middleware.GetReqID(r.Context())

	res, err := s.world.Submit(r.Context(), SessionID, act)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, protocol.ErrWorldBusy, err.Error())
		return
	}
	if !res.Ack.Accepted {
		writeError(w, statusForCode(res.Ack.Code), res.Ack.Code, res.Ack.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seq":    res.Ack.Seq,
		"status": res.State.Status,
		"popup":  res.State.Popup,
	})
}

func cellParam(w http.ResponseWriter, r *http.Request) ([2]int, bool) {
	i, err1 := strconv.Atoi(chi.URLParam(r, "i"))
	j, err2 := strconv.Atoi(chi.URLParam(r, "j"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrBadRequest, "cell coordinates must be integers")
		return [2]int{}, false
	}
	return [2]int{i, j}, true
}

func statusForCode(code string) int {
	switch code {
	case protocol.ErrInvalidTarget:
		return http.StatusNotFound
	case protocol.ErrNoResource:
		return http.StatusConflict
	case protocol.ErrBadRequest, protocol.ErrProtoBadRequest:
		return http.StatusBadRequest
	case protocol.ErrWorldBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}
