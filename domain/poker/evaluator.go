package poker

import (
	"fmt"

	handeval "github.com/paulhankin/poker"
)

// HandValue is the strength of a best five-card hand. Higher is stronger.
type HandValue int16

// Compare returns -1, 0 or 1 as v is weaker than, equal to, or stronger
// than other.
func (v HandValue) Compare(other HandValue) int {
	switch {
	case v < other:
		return -1
	case v > other:
		return 1
	default:
		return 0
	}
}

// HandRanker evaluates the best five-card hand from two hole cards plus
// community cards. Implementations must accept 5 to 7 total cards and
// rank the A-2-3-4-5 straight as a straight.
type HandRanker interface {
	Evaluate(hole [2]Card, community []Card) (HandValue, error)
}

// Eval7Ranker ranks hands with the paulhankin/poker lookup evaluator.
type Eval7Ranker struct{}

// Evaluate returns the strength of the best hand available from the hole
// and community cards.
func (Eval7Ranker) Evaluate(hole [2]Card, community []Card) (HandValue, error) {
	total := 2 + len(community)
	if total < 5 || total > 7 {
		return 0, fmt.Errorf("evaluate needs 5-7 cards, got %d", total)
	}

	cards := make([]handeval.Card, 0, total)
	for i, c := range append([]Card{hole[0], hole[1]}, community...) {
		hc, err := handeval.MakeCard(handeval.Suit(c.suit), handeval.Rank(c.rank))
		if err != nil {
			return 0, fmt.Errorf("invalid card at idx %d: %w", i, err)
		}
		cards = append(cards, hc)
	}

	switch total {
	case 7:
		var hand [7]handeval.Card
		copy(hand[:], cards)
		return HandValue(handeval.Eval7(&hand)), nil
	case 5:
		var hand [5]handeval.Card
		copy(hand[:], cards)
		return HandValue(handeval.Eval5(&hand)), nil
	default: // 6 cards: best of the six 5-card subsets
		var best int16
		var hand [5]handeval.Card
		for skip := 0; skip < 6; skip++ {
			k := 0
			for i, c := range cards {
				if i == skip {
					continue
				}
				hand[k] = c
				k++
			}
			if score := handeval.Eval5(&hand); skip == 0 || score > best {
				best = score
			}
		}
		return HandValue(best), nil
	}
}

// DescribeHand returns a human-readable description of the best hand
// formed by the given cards, e.g. "two pair".
func DescribeHand(hole [2]Card, community []Card) (string, error) {
	cards := make([]handeval.Card, 0, 2+len(community))
	for i, c := range append([]Card{hole[0], hole[1]}, community...) {
		hc, err := handeval.MakeCard(handeval.Suit(c.suit), handeval.Rank(c.rank))
		if err != nil {
			return "", fmt.Errorf("invalid card at idx %d: %w", i, err)
		}
		cards = append(cards, hc)
	}
	return handeval.Describe(cards)
}
