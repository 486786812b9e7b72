package world

import (
	"context"
	"errors"

	"geocoin.ai/internal/protocol"
)

var ErrStopped = errors.New("world stopped")

type queryReq struct {
	Resp chan Overview
}

// Run serializes every state change on the calling goroutine until ctx is
// done or Stop is called.
func (w *World) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case req := <-w.leave:
			w.handleLeave(req)
		case env := <-w.inbox:
			res := w.Apply(env.SessionID, env.Act)
			if env.Resp != nil {
				env.Resp <- res
			}
		case req := <-w.query:
			req.Resp <- w.overview()
		case req := <-w.admin:
			w.handleAdminSnapshot(req)
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- LeaveRequest   { return w.leave }

// Submit sends an action to the loop and waits for its result.
func (w *World) Submit(ctx context.Context, sessionID string, act protocol.ActMsg) (ActionResult, error) {
	resp := make(chan ActionResult, 1)
	select {
	case w.inbox <- ActionEnvelope{SessionID: sessionID, Act: act, Resp: resp}:
	case <-w.stop:
		return ActionResult{}, ErrStopped
	case <-ctx.Done():
		return ActionResult{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-w.stop:
		return ActionResult{}, ErrStopped
	case <-ctx.Done():
		return ActionResult{}, ctx.Err()
	}
}

// Overview asks the loop for a consistent view of the board.
func (w *World) Overview(ctx context.Context) (Overview, error) {
	resp := make(chan Overview, 1)
	select {
	case w.query <- queryReq{Resp: resp}:
	case <-w.stop:
		return Overview{}, ErrStopped
	case <-ctx.Done():
		return Overview{}, ctx.Err()
	}
	select {
	case o := <-resp:
		return o, nil
	case <-w.stop:
		return Overview{}, ErrStopped
	case <-ctx.Done():
		return Overview{}, ctx.Err()
	}
}
