package poker

import "fmt"

// Round is the betting state machine for one hand. It owns the deck, the
// hole and community cards, and all per-street betting state. Chips only
// ever move from a player's stack into the pot through commit, and out of
// the pot through settlement, so the pot always equals the sum of
// cumulative bets.
//
// A Round is not safe for concurrent use; callers serialize access per room.
type Round struct {
	players []*Player // seat order
	ranker  HandRanker
	deck    *Deck

	button     int
	smallBlind int
	bigBlind   int

	street    Street
	community []Card
	holes     map[string][2]Card

	streetBets  map[string]int
	totalBets   map[string]int
	folded      map[string]bool
	acted       map[string]bool
	raiseClosed map[string]bool // barred from re-raising after an under-raise all-in

	pot           int
	currentBet    int // highest street-bet this street
	minRaise      int
	nextToAct     int // seat index, -1 when nobody can act
	lastAggressor string
	settled       bool
}

// NewRound creates a round for the given seated players. The button index
// and blind amounts come from the room; the deck arrives already shuffled.
func NewRound(players []*Player, button, smallBlind, bigBlind int, deck *Deck, ranker HandRanker) (*Round, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("round needs at least 2 players, got %d", len(players))
	}
	if button < 0 || button >= len(players) {
		return nil, fmt.Errorf("button index %d out of range", button)
	}
	return &Round{
		players:     players,
		ranker:      ranker,
		deck:        deck,
		button:      button,
		smallBlind:  smallBlind,
		bigBlind:    bigBlind,
		street:      PreFlop,
		holes:       make(map[string][2]Card),
		streetBets:  make(map[string]int),
		totalBets:   make(map[string]int),
		folded:      make(map[string]bool),
		acted:       make(map[string]bool),
		raiseClosed: make(map[string]bool),
	}, nil
}

// Start deals two hole cards to every seat and posts the blinds. A blind
// poster short of the full amount posts their whole stack; that is legal
// and leaves them all-in.
func (r *Round) Start() error {
	for _, p := range r.players {
		cards, err := r.deck.Deal(2)
		if err != nil {
			return err
		}
		r.holes[p.ID] = [2]Card{cards[0], cards[1]}
	}

	sbSeat, bbSeat := r.blindSeats()
	r.commit(r.players[sbSeat], r.smallBlind)
	r.commit(r.players[bbSeat], r.bigBlind)

	// Call price is the full big blind even when the poster was short.
	r.currentBet = r.bigBlind
	r.minRaise = r.bigBlind

	if len(r.players) == 2 {
		// Heads-up the dealer posts the small blind and acts first
		// preflop. Starting the search one seat back lets nextActiveSeat
		// consider the dealer first but skip them when the blind already
		// put them all-in.
		r.nextToAct = r.nextActiveSeat((r.button + 1) % 2)
	} else {
		r.nextToAct = r.nextActiveSeat(bbSeat)
	}
	return nil
}

// blindSeats returns the small- and big-blind seat indexes. Heads-up the
// dealer is the small blind.
func (r *Round) blindSeats() (int, int) {
	n := len(r.players)
	if n == 2 {
		return r.button, (r.button + 1) % n
	}
	return (r.button + 1) % n, (r.button + 2) % n
}

// commit moves up to amount chips from the player's stack into the pot,
// capped at the stack. It is the only place chips leave a stack mid-hand.
func (r *Round) commit(p *Player, amount int) int {
	pay := amount
	if p.Stack < pay {
		pay = p.Stack
	}
	p.Stack -= pay
	r.streetBets[p.ID] += pay
	r.totalBets[p.ID] += pay
	r.pot += pay
	return pay
}

// ExecuteAction validates and applies one player intent. Validation fully
// precedes mutation: on error the round is unchanged.
func (r *Round) ExecuteAction(playerID string, kind ActionType, amount int) error {
	if r.settled || r.street == Showdown {
		return ErrRoundOver
	}
	if r.BettingComplete() {
		// Street is closed; nobody has a legal action until it advances.
		return ErrNotYourTurn
	}
	idx := r.seatOf(playerID)
	if idx == -1 {
		return ErrUnknownPlayer
	}
	if r.folded[playerID] {
		return ErrAlreadyFolded
	}
	if idx != r.nextToAct {
		return ErrNotYourTurn
	}

	p := r.players[idx]
	switch kind {
	case ActionFold:
		r.folded[playerID] = true
	case ActionCheck:
		if r.streetBets[playerID] != r.currentBet {
			return ErrIllegalCheck
		}
	case ActionCall:
		r.commit(p, r.currentBet-r.streetBets[playerID])
	case ActionRaise:
		if err := r.applyRaise(p, amount); err != nil {
			return err
		}
	case ActionAllIn:
		r.applyAllIn(p)
	default:
		return ErrUnknownAction
	}

	r.acted[playerID] = true
	r.nextToAct = r.nextActiveSeat(idx)
	if r.liveCount() == 0 {
		return ErrNoActivePlayers
	}
	return nil
}

// applyRaise handles a raise where amount is the additional chips beyond
// matching the current bet. The raise increment must meet the minimum
// unless the raiser is all-in, in which case the short raise stands but
// does not reopen the action for players already matched to the prior bet.
func (r *Round) applyRaise(p *Player, amount int) error {
	if amount <= 0 {
		return ErrRaiseTooSmall
	}
	if r.raiseClosed[p.ID] {
		return fmt.Errorf("%w: action was not reopened", ErrRaiseTooSmall)
	}

	toCall := r.currentBet - r.streetBets[p.ID]
	pay := toCall + amount
	if pay > p.Stack {
		pay = p.Stack
	}
	newBet := r.streetBets[p.ID] + pay
	if newBet <= r.currentBet {
		return ErrRaiseTooSmall
	}
	increment := newBet - r.currentBet
	isAllIn := pay == p.Stack
	if increment < r.minRaise && !isAllIn {
		return ErrRaiseTooSmall
	}

	r.commit(p, pay)
	r.settleRaise(p.ID, newBet, increment)
	return nil
}

// applyAllIn commits the player's entire stack. If the resulting total
// exceeds the current bet it acts as a raise, otherwise as a call.
func (r *Round) applyAllIn(p *Player) {
	newBet := r.streetBets[p.ID] + p.Stack
	r.commit(p, p.Stack)
	if newBet > r.currentBet {
		increment := newBet - r.currentBet
		r.settleRaise(p.ID, newBet, increment)
	}
}

// settleRaise updates the betting bar after a raise. A full raise reopens
// the action: everyone else must act again and regains the right to
// re-raise. An under-raise (only possible all-in) raises the call price
// but bars already-acted players from re-raising.
func (r *Round) settleRaise(playerID string, newBet, increment int) {
	r.currentBet = newBet
	r.lastAggressor = playerID
	if increment >= r.minRaise {
		r.minRaise = increment
		r.acted = map[string]bool{playerID: true}
		r.raiseClosed = make(map[string]bool)
		return
	}
	for _, q := range r.players {
		if q.ID != playerID && r.acted[q.ID] {
			r.raiseClosed[q.ID] = true
		}
	}
}

// BettingComplete reports whether betting on the current street is done:
// at most one live player remains, or every player who can still act has
// acted and matched the current bet. Players all-in for their whole stack
// are exempt from the matching requirement. The acted set also enforces
// the preflop big-blind option: posting a blind is not acting.
func (r *Round) BettingComplete() bool {
	if r.liveCount() <= 1 {
		return true
	}
	for _, p := range r.players {
		if r.folded[p.ID] || p.Stack == 0 {
			continue
		}
		if !r.acted[p.ID] || r.streetBets[p.ID] != r.currentBet {
			return false
		}
	}
	return true
}

// AdvanceStreet moves to the next street: resets per-street betting
// state, deals 3/1/1 community cards for flop/turn/river, and hands the
// action to the first live seat after the button.
func (r *Round) AdvanceStreet() error {
	if r.settled || r.street == Showdown {
		return ErrRoundOver
	}
	r.street = nextStreet(r.street)
	if n := communityDeals(r.street); n > 0 {
		cards, err := r.deck.Deal(n)
		if err != nil {
			return err
		}
		r.community = append(r.community, cards...)
	}

	r.streetBets = make(map[string]int)
	r.acted = make(map[string]bool)
	r.raiseClosed = make(map[string]bool)
	r.lastAggressor = ""
	r.currentBet = 0
	r.minRaise = r.bigBlind
	r.nextToAct = r.nextActiveSeat(r.button)
	return nil
}

// PerformShowdown settles the hand exactly once and returns the payout
// per player. With one live player the whole pot goes to them with no
// hand comparison. Otherwise side pots are built from cumulative bets and
// each pot goes to its best live hand(s), ties split with the odd chip to
// the earliest seat. This is the only place stacks are credited.
func (r *Round) PerformShowdown() (map[string]int, error) {
	if r.settled {
		return nil, ErrRoundOver
	}

	var live []*Player
	for _, p := range r.players {
		if !r.folded[p.ID] {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return nil, ErrNoActivePlayers
	}

	r.street = Showdown
	r.settled = true
	r.nextToAct = -1

	if len(live) == 1 {
		winner := live[0]
		payouts := map[string]int{winner.ID: r.pot}
		winner.Stack += r.pot
		r.pot = 0
		return payouts, nil
	}

	values := make(map[string]HandValue, len(live))
	for _, p := range live {
		v, err := r.ranker.Evaluate(r.holes[p.ID], r.community)
		if err != nil {
			return nil, fmt.Errorf("evaluate hand of %s: %w", p.ID, err)
		}
		values[p.ID] = v
	}

	var contribs []Contribution
	for _, p := range r.players {
		contribs = append(contribs, Contribution{
			PlayerID: p.ID,
			Amount:   r.totalBets[p.ID],
			Folded:   r.folded[p.ID],
		})
	}
	pots := SidePots(contribs)

	winners := make([][]string, len(pots))
	for i, pot := range pots {
		var best HandValue
		var ws []string
		for _, id := range pot.Eligible {
			v := values[id]
			switch {
			case len(ws) == 0 || v.Compare(best) > 0:
				best = v
				ws = []string{id}
			case v.Compare(best) == 0:
				ws = append(ws, id)
			}
		}
		winners[i] = ws
	}

	payouts := Distribute(pots, winners)
	for _, p := range r.players {
		if amount, ok := payouts[p.ID]; ok {
			p.Stack += amount
		}
	}
	r.pot = 0
	return payouts, nil
}

// nextActiveSeat returns the next seat after from that can still act
// (not folded, chips behind), or -1 if none exists.
func (r *Round) nextActiveSeat(from int) int {
	n := len(r.players)
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		p := r.players[seat]
		if !r.folded[p.ID] && p.Stack > 0 {
			return seat
		}
	}
	return -1
}

func (r *Round) seatOf(playerID string) int {
	for i, p := range r.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Round) liveCount() int {
	n := 0
	for _, p := range r.players {
		if !r.folded[p.ID] {
			n++
		}
	}
	return n
}

// CurrentBettor returns the player whose turn it is, or nil when nobody
// can act (all-in runout, settled hand).
func (r *Round) CurrentBettor() *Player {
	if r.settled || r.nextToAct < 0 || r.nextToAct >= len(r.players) {
		return nil
	}
	return r.players[r.nextToAct]
}

// Street returns the current betting street.
func (r *Round) Street() Street { return r.street }

// Pot returns the total chips wagered this hand.
func (r *Round) Pot() int { return r.pot }

// CurrentBet returns the highest street-bet this street.
func (r *Round) CurrentBet() int { return r.currentBet }

// Settled reports whether the hand has been settled.
func (r *Round) Settled() bool { return r.settled }

// LiveCount returns the number of players who have not folded.
func (r *Round) LiveCount() int { return r.liveCount() }

// Community returns a copy of the visible community cards.
func (r *Round) Community() []Card {
	return append([]Card{}, r.community...)
}

// HoleCards returns the hole cards dealt to the given player.
func (r *Round) HoleCards(playerID string) ([2]Card, bool) {
	h, ok := r.holes[playerID]
	return h, ok
}

// StreetBet returns the player's wager on the current street.
func (r *Round) StreetBet(playerID string) int { return r.streetBets[playerID] }

// TotalBet returns the player's cumulative wager this hand.
func (r *Round) TotalBet(playerID string) int { return r.totalBets[playerID] }

// Folded reports whether the player has folded.
func (r *Round) Folded(playerID string) bool { return r.folded[playerID] }

// Players returns the seats in turn order.
func (r *Round) Players() []*Player { return r.players }
