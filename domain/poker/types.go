package poker

// Player is a seated player's durable state. The chip stack is mutated
// only by blind posting and showdown settlement.
type Player struct {
	ID    string
	Name  string
	Seat  int // stable ordinal for turn order
	Stack int
}

// ActionType identifies one of the player intents the round accepts.
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allin"
)

// Action is a validated player intent. Amount is meaningful only for
// raise, where it is the additional chips added beyond matching the
// current bet.
type Action struct {
	PlayerID string     `json:"playerId"`
	Type     ActionType `json:"type"`
	Amount   int        `json:"amount,omitempty"`
}

// Street is a phase of betting tied to how many community cards are visible.
type Street string

const (
	PreFlop  Street = "preflop"
	Flop     Street = "flop"
	Turn     Street = "turn"
	River    Street = "river"
	Showdown Street = "showdown"
)

// nextStreet returns the street following the current one.
// Showdown is terminal.
func nextStreet(current Street) Street {
	switch current {
	case PreFlop:
		return Flop
	case Flop:
		return Turn
	case Turn:
		return River
	default:
		return Showdown
	}
}

// communityDeals returns how many community cards are dealt entering
// the given street.
func communityDeals(s Street) int {
	switch s {
	case Flop:
		return 3
	case Turn, River:
		return 1
	default:
		return 0
	}
}
