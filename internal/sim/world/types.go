package world

import (
	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world/kernel/model"
)

// ActionLogEntry records one applied action and the state digest after it.
// Seq restarts at 1 with every run, so RunID tells runs apart.
type ActionLogEntry struct {
	RunID     string          `json:"run_id,omitempty"`
	Seq       uint64          `json:"seq"`
	UnixMS    int64           `json:"unix_ms"`
	WorldID   string          `json:"world_id"`
	SessionID string          `json:"session_id"`
	Act       protocol.ActMsg `json:"act"`
	Accepted  bool            `json:"accepted"`
	Code      string          `json:"code,omitempty"`
	Digest    string          `json:"digest"`
}

type ActionLogger interface {
	WriteAction(entry ActionLogEntry) error
}

type JoinRequest struct {
	Name        string
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

// LeaveRequest ends one connection of a session. With Out set, the leave
// only applies while that channel is still the session's connection; a
// resumed connection replaces it. A nil Out drops the session regardless.
type LeaveRequest struct {
	SessionID string
	Out       chan []byte
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	SessionID string
	Act       protocol.ActMsg
	Resp      chan ActionResult
}

// ActionResult is the acknowledgement plus the caller's re-rendered state.
type ActionResult struct {
	Ack   protocol.AckMsg
	State protocol.StateMsg
}

// Overview is a read-only view of the whole board.
type Overview struct {
	WorldID string              `json:"world_id"`
	Seq     uint64              `json:"seq"`
	Map     protocol.MapParams  `json:"map"`
	Markers []protocol.Marker   `json:"markers"`
	Status  protocol.StatusView `json:"status"`
	Metrics WorldMetrics        `json:"metrics"`
}

func keyOf(cell [2]int) model.CellKey {
	return model.CellKey{I: cell[0], J: cell[1]}
}
