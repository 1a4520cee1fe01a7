package poker

import "errors"

// Illegal-action errors. All are player-facing and recoverable: the round
// state is unchanged when one of these is returned.
var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrAlreadyFolded     = errors.New("player has already folded")
	ErrIllegalCheck      = errors.New("cannot check, must call, raise or fold")
	ErrRaiseTooSmall     = errors.New("raise does not meet the minimum raise")
	ErrInsufficientCards = errors.New("insufficient cards in deck")
	ErrNoActivePlayers   = errors.New("no active players remain")
	ErrRoundOver         = errors.New("round has already been settled")
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnknownPlayer     = errors.New("player not in round")
)
