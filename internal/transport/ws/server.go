package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world"
)

const outQueue = 16

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

// NewServer accepts any origin when allowedOrigin is empty.
func NewServer(w *world.World, logger *log.Logger, allowedOrigin string) *Server {
	allowedOrigin = strings.TrimSpace(allowedOrigin)
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sessionID, out := s.handshake(ctx, conn)
		if sessionID == "" {
			return
		}
		if s.log != nil {
			s.log.Printf("session joined: %s", sessionID)
		}

		// STATE frames arrive on out and may be dropped by the world when the
		// client lags; ACKs get their own queue so none is lost.
		acks := make(chan []byte, outQueue)
		go s.writeLoop(ctx, cancel, conn, out, acks)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			ack, ok := s.handleMessage(ctx, sessionID, msg)
			if !ok {
				continue
			}
			b, err := json.Marshal(ack)
			if err != nil {
				continue
			}
			select {
			case acks <- b:
			case <-ctx.Done():
			}
		}

		// Cleanup. The leave names this connection so it cannot end a
		// session that was resumed elsewhere in the meantime.
		select {
		case s.world.Leave() <- world.LeaveRequest{SessionID: sessionID, Out: out}:
		case <-time.After(time.Second):
		}
		if s.log != nil {
			s.log.Printf("session left: %s", sessionID)
		}
	}
}

// writeLoop is the only writer after the handshake. Pending ACKs go out
// before STATE frames.
func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out, acks <-chan []byte) {
	write := func(b []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			cancel()
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-acks:
			if !write(b) {
				return
			}
			continue
		default:
		}
		select {
		case <-ctx.Done():
			return
		case b := <-acks:
			if !write(b) {
				return
			}
		case b, ok := <-out:
			if !ok {
				return
			}
			if !write(b) {
				return
			}
		}
	}
}

// handleMessage routes one client frame. ok is false for frames that get no reply.
func (s *Server) handleMessage(ctx context.Context, sessionID string, msg []byte) (protocol.AckMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeAct {
		return protocol.AckMsg{}, false
	}
	var act protocol.ActMsg
	if err := json.Unmarshal(msg, &act); err != nil {
		return rejectAck("", protocol.ErrProtoBadRequest, "malformed ACT"), true
	}
	if act.ProtocolVersion != protocol.Version {
		return rejectAck(act.ID, protocol.ErrProtoBadRequest, "bad protocol_version"), true
	}
	if !protocol.IsKnownAction(act.Action) {
		return rejectAck(act.ID, protocol.ErrBadRequest, "unknown action"), true
	}

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := s.world.Submit(subCtx, sessionID, act)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return protocol.AckMsg{}, false
		}
		return rejectAck(act.ID, protocol.ErrWorldBusy, err.Error()), true
	}
	return res.Ack, true
}

func rejectAck(id, code, msg string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          id,
		Code:            code,
		Message:         msg,
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "player"
	}

	resumeToken := ""
	if hello.Auth != nil {
		resumeToken = strings.TrimSpace(hello.Auth.Token)
	}

	out = make(chan []byte, outQueue)
	respCh := make(chan world.JoinResponse, 1)
	req := world.JoinRequest{Name: hello.ClientName, ResumeToken: resumeToken, Out: out, Resp: respCh}

	joinCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	select {
	case s.world.Join() <- req:
	case <-joinCtx.Done():
		return "", nil
	}
	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-joinCtx.Done():
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", nil
	}
	return resp.Welcome.SessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
