package network

import (
	"github.com/fukuta0614/holdem-room/domain/poker"
)

// Client intent types accepted over the wire.
const (
	MsgCreateRoom = "createRoom"
	MsgJoinRoom   = "joinRoom"
	MsgStartRound = "startRound"
	MsgAction     = "action"
	MsgReconnect  = "reconnect"
)

// ClientMessage is one JSON frame from a connection. Fields beyond Type
// are read per intent; unknown fields are ignored.
type ClientMessage struct {
	Type     string           `json:"type"`
	RoomID   string           `json:"roomId,omitempty"`
	PlayerID string           `json:"playerId,omitempty"`
	Name     string           `json:"name,omitempty"`
	Action   poker.ActionType `json:"action,omitempty"`
	Amount   int              `json:"amount,omitempty"`
}

// resumePayload is the private frame answering a successful reconnect.
type resumePayload struct {
	Type  string `json:"type"`
	State any    `json:"state"`
}
