package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"geocoin.ai/internal/client"
)

// Run drives the screen until the user quits, ctx ends or the connection drops.
func Run(ctx context.Context, s tcell.Screen, c *client.Client) error {
	m := NewModel(c.Welcome())
	m.Draw(s)

	keys := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case keys <- ev:
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.Events():
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return ev.Err
			}
			if ev.State != nil {
				m.ApplyState(*ev.State)
			}
			if ev.Ack != nil {
				m.ApplyAck(*ev.Ack)
			}
		case ev := <-keys:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				cmd, ok := m.HandleKey(ev)
				if ok && cmd.Quit {
					return nil
				}
				if ok {
					if _, err := c.Act(cmd.Action, cmd.Cell); err != nil {
						return err
					}
				}
			case *tcell.EventResize:
				s.Sync()
			}
		}
		m.Draw(s)
	}
}
