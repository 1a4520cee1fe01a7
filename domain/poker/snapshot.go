package poker

// SeatState is one seat's public state as seen by any player.
type SeatState struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	Stack     int    `json:"stack"`
	StreetBet int    `json:"streetBet"`
	Folded    bool   `json:"folded"`
	AllIn     bool   `json:"allIn"`
}

// RoundSnapshot is the full observable state one player needs to resume
// mid-hand after a reconnect. Hole cards are the viewer's own only.
type RoundSnapshot struct {
	Street        Street      `json:"street"`
	Community     []Card      `json:"community"`
	Pot           int         `json:"pot"`
	CurrentBettor string      `json:"currentBettor,omitempty"`
	Seats         []SeatState `json:"seats"`
	HoleCards     []Card      `json:"holeCards,omitempty"`
}

// Snapshot builds the resume view for the given player. Other players'
// hole cards are never included.
func (r *Round) Snapshot(viewerID string) RoundSnapshot {
	snap := RoundSnapshot{
		Street:    r.street,
		Community: r.Community(),
		Pot:       r.pot,
	}
	if bettor := r.CurrentBettor(); bettor != nil {
		snap.CurrentBettor = bettor.ID
	}
	for _, p := range r.players {
		snap.Seats = append(snap.Seats, SeatState{
			PlayerID:  p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Stack:     p.Stack,
			StreetBet: r.streetBets[p.ID],
			Folded:    r.folded[p.ID],
			AllIn:     p.Stack == 0 && r.totalBets[p.ID] > 0 && !r.folded[p.ID],
		})
	}
	if hole, ok := r.holes[viewerID]; ok {
		snap.HoleCards = []Card{hole[0], hole[1]}
	}
	return snap
}
