package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeState   = "STATE"
	TypeAct     = "ACT"
	TypeAck     = "ACK"
)

// Popup actions carried by ACT.
const (
	ActOpen    = "OPEN"
	ActClose   = "CLOSE"
	ActCollect = "COLLECT"
	ActDeposit = "DEPOSIT"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

func IsKnownAction(a string) bool {
	switch a {
	case ActOpen, ActClose, ActCollect, ActDeposit:
		return true
	}
	return false
}
