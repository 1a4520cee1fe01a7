package poker

// LegalActions derives the action kinds the given player may take right
// now, from the round's betting state. Returns nil when it is not the
// player's turn or the hand is over.
func (r *Round) LegalActions(playerID string) []ActionType {
	bettor := r.CurrentBettor()
	if bettor == nil || bettor.ID != playerID {
		return nil
	}

	toCall := r.currentBet - r.streetBets[playerID]
	actions := []ActionType{ActionFold}
	if toCall == 0 {
		actions = append(actions, ActionCheck)
	}
	if toCall > 0 {
		actions = append(actions, ActionCall)
	}
	if bettor.Stack > toCall && !r.raiseClosed[playerID] {
		actions = append(actions, ActionRaise)
	}
	if bettor.Stack > 0 {
		actions = append(actions, ActionAllIn)
	}
	return actions
}

// CallAmount returns the chips the player must add to match the current
// bet, capped at their stack.
func (r *Round) CallAmount(playerID string) int {
	idx := r.seatOf(playerID)
	if idx == -1 {
		return 0
	}
	toCall := r.currentBet - r.streetBets[playerID]
	if toCall < 0 {
		toCall = 0
	}
	if stack := r.players[idx].Stack; toCall > stack {
		toCall = stack
	}
	return toCall
}

// MinRaise returns the minimum additional amount a raise must add beyond
// the call for the current street.
func (r *Round) MinRaise() int { return r.minRaise }
