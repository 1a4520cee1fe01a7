package poker

// Pot is a main or side pot: an amount and the players eligible to win it.
// Eligible preserves the contribution order it was built from.
type Pot struct {
	Amount   int
	Eligible []string
}

// Contribution is one player's cumulative wager for the hand, in seat order.
type Contribution struct {
	PlayerID string
	Amount   int
	Folded   bool
}

// SidePots partitions the total chips wagered into a main pot and zero or
// more side pots. It repeatedly takes the minimum remaining contribution,
// forms a pot of that layer across all remaining contributors, and drops
// contributors that reach zero. Folded players fund pots but are never
// eligible. Pots come out ordered from broadest eligibility to narrowest.
func SidePots(contribs []Contribution) []Pot {
	remaining := make([]int, len(contribs))
	for i, c := range contribs {
		remaining[i] = c.Amount
	}

	var pots []Pot
	for {
		var contributors []int
		for i, r := range remaining {
			if r > 0 {
				contributors = append(contributors, i)
			}
		}
		if len(contributors) == 0 {
			break
		}

		minBet := remaining[contributors[0]]
		for _, idx := range contributors {
			if remaining[idx] < minBet {
				minBet = remaining[idx]
			}
		}

		amount := 0
		eligible := []string{}
		for _, idx := range contributors {
			amount += minBet
			remaining[idx] -= minBet
			if !contribs[idx].Folded {
				eligible = append(eligible, contribs[idx].PlayerID)
			}
		}

		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
	}
	return pots
}

// Distribute splits each pot's amount evenly among its declared winners
// using integer division. A non-divisible remainder goes entirely to the
// first winner in that pot's winner list (odd-chip rule). Pots with no
// declared winner pay nothing. winners[i] are the winners of pots[i].
func Distribute(pots []Pot, winners [][]string) map[string]int {
	payouts := make(map[string]int)
	for i, pot := range pots {
		if i >= len(winners) || len(winners[i]) == 0 {
			continue
		}
		ws := winners[i]
		share := pot.Amount / len(ws)
		remainder := pot.Amount % len(ws)
		for _, w := range ws {
			payouts[w] += share
		}
		payouts[ws[0]] += remainder
	}
	return payouts
}
