package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"geocoin.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := s.Validate(doc); err != nil {
			t.Fatalf("validate %s: %v", b, err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	stateSchema := compile("state.schema.json")
	actSchema := compile("act.schema.json")
	ackSchema := compile("ack.schema.json")

	validate(helloSchema, protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "tui",
		Auth:            &protocol.HelloAuth{Token: "resume_abc"},
	})

	coin := protocol.CoinView{ID: "0:-1#2", Origin: [2]int{0, -1}, Serial: 2}
	status := protocol.StatusView{Text: "Coins: 1", Points: 1, Inventory: []protocol.CoinView{coin}}
	popup := &protocol.PopupView{
		Cell:  [2]int{0, -1},
		Title: "Cache at 0, -1",
		Count: 1,
		Coins: []protocol.CoinView{{ID: "0:-1#0", Origin: [2]int{0, -1}, Serial: 0}},
		Buttons: []protocol.ButtonView{
			{ID: "collect", Label: "collect", Enabled: true, Coin: "0:-1#0"},
			{ID: "deposit", Label: "deposit", Enabled: true},
		},
	}
	marker := protocol.Marker{
		ID:       "0:-1",
		Cell:     [2]int{0, -1},
		Position: [2]float64{36.9894, -122.0628},
		Bounds:   [2][2]float64{{36.9894, -122.0628}, {36.9895, -122.0627}},
		Coins:    1,
	}

	validate(welcomeSchema, protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		ResumeToken:     "resume_S1",
		WorldID:         "test",
		Map: protocol.MapParams{
			Center:      [2]float64{36.9894, -122.0627},
			Zoom:        19,
			MinZoom:     19,
			MaxZoom:     19,
			TileURL:     "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "OpenStreetMap",
			CellDegrees: 0.0001,
			Radius:      8,
			Player:      protocol.PlayerMarker{Position: [2]float64{36.9894, -122.0627}, Label: "You are here!"},
		},
		Markers: []protocol.Marker{marker},
		Status:  status,
	})

	validate(stateSchema, protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Seq:             3,
		Status:          status,
		Popup:           popup,
		Markers:         []protocol.Marker{marker},
	})

	serial := 0
	validate(actSchema, protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              "A1",
		Action:          protocol.ActCollect,
		Cell:            [2]int{0, -1},
		Serial:          &serial,
	})

	validate(ackSchema, protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          "A1",
		Accepted:        false,
		Code:            protocol.ErrNoResource,
		Message:         "cache is empty",
	})
}

func TestSchemas_RejectUnknownAction(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "act.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var doc any
	_ = json.Unmarshal([]byte(`{"type":"ACT","protocol_version":"1.0","action":"TELEPORT","cell":[0,0]}`), &doc)
	if err := s.Validate(doc); err == nil {
		t.Fatalf("expected unknown action rejected")
	}
}
