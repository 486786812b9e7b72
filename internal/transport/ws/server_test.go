package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"geocoin.ai/internal/protocol"
	"geocoin.ai/internal/sim/world"
)

func startServer(t *testing.T) (*world.World, string) {
	t.Helper()
	w, err := world.New(world.WorldConfig{Seed: 4, Radius: 1, SpawnChance: 1, MaxCoins: 3})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = w.Run(ctx) }()

	srv := httptest.NewServer(NewServer(w, nil, "").Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return w, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn, want string) []byte {
	t.Helper()
	for i := 0; i < 8; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type == want {
			return b
		}
	}
	t.Fatalf("no %s message", want)
	return nil
}

func hello(t *testing.T, conn *websocket.Conn, token string) protocol.WelcomeMsg {
	t.Helper()
	msg := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "t"}
	if token != "" {
		msg.Auth = &protocol.HelloAuth{Token: token}
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeWelcome), &welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	return welcome
}

func TestServer_HelloCollectAck(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	welcome := hello(t, conn, "")
	if welcome.SessionID == "" || welcome.ResumeToken == "" || len(welcome.Markers) != 4 {
		t.Fatalf("welcome: %+v", welcome)
	}

	act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, ID: "c1", Action: protocol.ActCollect, Cell: [2]int{0, 0}}
	if err := conn.WriteJSON(act); err != nil {
		t.Fatalf("act: %v", err)
	}
	var ack protocol.AckMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeAck), &ack); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !ack.Accepted || ack.AckFor != "c1" {
		t.Fatalf("ack: %+v", ack)
	}

	// Nothing left to deposit after one deposit.
	for i, wantOK := range []bool{true, false} {
		act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, ID: "d", Action: protocol.ActDeposit, Cell: [2]int{-1, -1}}
		if err := conn.WriteJSON(act); err != nil {
			t.Fatalf("deposit: %v", err)
		}
		var ack protocol.AckMsg
		if err := json.Unmarshal(readType(t, conn, protocol.TypeAck), &ack); err != nil {
			t.Fatalf("ack: %v", err)
		}
		if ack.Accepted != wantOK {
			t.Fatalf("deposit %d: %+v", i, ack)
		}
		if !wantOK && ack.Code != protocol.ErrNoResource {
			t.Fatalf("deposit code: %+v", ack)
		}
	}
}

func TestServer_RejectsBadVersionAct(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)
	hello(t, conn, "")

	if err := conn.WriteJSON(protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: "0.9", ID: "x", Action: protocol.ActOpen}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack protocol.AckMsg
	if err := json.Unmarshal(readType(t, conn, protocol.TypeAck), &ack); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if ack.Accepted || ack.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("ack: %+v", ack)
	}
}

func TestServer_ResumeToken(t *testing.T) {
	_, url := startServer(t)
	first := hello(t, dial(t, url), "")
	second := hello(t, dial(t, url), first.ResumeToken)
	if second.SessionID != first.SessionID {
		t.Fatalf("resume: got %q want %q", second.SessionID, first.SessionID)
	}
}

func TestServer_RequiresHello(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)
	if err := conn.WriteJSON(map[string]string{"type": protocol.TypeAct}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the connection to close")
	}
}

func TestWriteLoop_DeliversAcksWhileStatesQueueUp(t *testing.T) {
	serverConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		c, err := up.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		serverConn <- c
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	client := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	conn := <-serverConn
	t.Cleanup(func() { _ = conn.Close() })

	// A full STATE queue, as left behind by a lagging writer.
	out := make(chan []byte, outQueue)
	for i := 0; i < outQueue; i++ {
		out <- []byte(`{"type":"STATE","protocol_version":"1.0","seq":` + strconv.Itoa(i+1) + `}`)
	}
	acks := make(chan []byte, outQueue)
	acks <- []byte(`{"type":"ACK","protocol_version":"1.0","ack_for":"a1","accepted":true}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewServer(nil, nil, "")
	go s.writeLoop(ctx, cancel, conn, out, acks)

	var first protocol.BaseMessage
	states := 0
	for i := 0; i < outQueue+1; i++ {
		_ = client.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, b, err := client.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if i == 0 {
			first = base
		}
		if base.Type == protocol.TypeState {
			states++
		}
	}
	if first.Type != protocol.TypeAck {
		t.Fatalf("pending ACK should go first, got %s", first.Type)
	}
	if states != outQueue {
		t.Fatalf("states=%d", states)
	}
}

func TestServer_StaleConnectionCloseKeepsResumedSession(t *testing.T) {
	w, url := startServer(t)
	oldConn := dial(t, url)
	first := hello(t, oldConn, "")
	newConn := dial(t, url)
	hello(t, newConn, first.ResumeToken)

	_ = oldConn.Close()
	// Give the old handler time to notice and send its leave.
	time.Sleep(300 * time.Millisecond)
	if got := w.Metrics().Sessions; got != 1 {
		t.Fatalf("sessions=%d after the old connection closed", got)
	}

	act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, ID: "c1", Action: protocol.ActCollect, Cell: [2]int{0, 0}}
	if err := newConn.WriteJSON(act); err != nil {
		t.Fatalf("act: %v", err)
	}
	var st protocol.StateMsg
	if err := json.Unmarshal(readType(t, newConn, protocol.TypeState), &st); err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Status.Points != 1 {
		t.Fatalf("state: %+v", st)
	}
}
