// Package client is the player side of the WebSocket protocol.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"geocoin.ai/internal/protocol"
)

// Event is one decoded server push. Exactly one field is set.
type Event struct {
	State *protocol.StateMsg
	Ack   *protocol.AckMsg
	Err   error
}

type Client struct {
	conn    *websocket.Conn
	welcome protocol.WelcomeMsg

	events chan Event
	done   chan struct{}
	// readDone is closed when readLoop returns.
	readDone chan struct{}
	nextID   atomic.Uint64

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects, performs the HELLO/WELCOME handshake and starts reading.
// A non-empty token resumes an earlier session.
func Dial(ctx context.Context, url, name, token string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{conn: conn, events: make(chan Event, 32), done: make(chan struct{}), readDone: make(chan struct{})}

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: name}
	if token != "" {
		hello.Auth = &protocol.HelloAuth{Token: token}
	}
	if err := c.write(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("welcome: %w", err)
	}
	if err := json.Unmarshal(b, &c.welcome); err != nil || c.welcome.Type != protocol.TypeWelcome {
		_ = conn.Close()
		return nil, errors.New("welcome: unexpected first message")
	}
	_ = conn.SetReadDeadline(time.Time{})

	go c.readLoop()
	return c, nil
}

func (c *Client) Welcome() protocol.WelcomeMsg { return c.welcome }

// Events is closed when the connection ends. Events not yet received are
// dropped once Close is called.
func (c *Client) Events() <-chan Event { return c.events }

// Act sends an action and returns the id the ACK will carry.
func (c *Client) Act(action string, cell [2]int) (string, error) {
	id := "a" + strconv.FormatUint(c.nextID.Add(1), 10)
	return id, c.write(protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Action:          action,
		Cell:            cell,
	})
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(v)
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	defer close(c.events)
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.emit(Event{Err: err})
			}
			return
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(b, &st); err == nil {
				if !c.emit(Event{State: &st}) {
					return
				}
			}
		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(b, &ack); err == nil {
				if !c.emit(Event{Ack: &ack}) {
					return
				}
			}
		}
	}
}

// emit reports false once the client is closed.
func (c *Client) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}
