package application

import "errors"

// Lifecycle errors, surfaced to the requesting connection. The room state
// is unchanged when one of these is returned.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrGameInProgress   = errors.New("game is already in progress")
	ErrNotEnoughPlayers = errors.New("at least 2 players are needed")
	ErrNoActiveRound    = errors.New("no round is in progress")
	ErrAlreadyJoined    = errors.New("player is already seated")
	ErrNotInRoom        = errors.New("player is not seated in this room")
	ErrNotHost          = errors.New("only the host may do that")
	ErrReconnectFailed  = errors.New("reconnect grace period expired")
)
