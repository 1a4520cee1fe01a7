package poker

import "fmt"

// Card suit constants (0-3)
const (
	Club    = 0 // ♣
	Diamond = 1 // ♦
	Heart   = 2 // ♥
	Spade   = 3 // ♠
)

// Card rank constants for face cards and ace
const (
	Jack  = 11 // J
	Queen = 12 // Q
	King  = 13 // K
	Ace   = 1  // A (low in straights, high in value)
)

// FaceDown is the display character for hidden cards
const FaceDown = "▓"

// Card represents a playing card with suit and rank.
// Rank 0 indicates a face-down or uninitialized card.
type Card struct {
	suit uint8 // 0-3: clubs, diamonds, hearts, spades
	rank uint8 // 1-13: ace through king (0 = face down)
}

// NewCard creates a new Card with validation.
//
// Parameters:
//   - suit: 0-3 (Club, Diamond, Heart, Spade)
//   - rank: 1-13 (Ace=1, 2-10=face value, Jack=11, Queen=12, King=13)
//
// Returns the Card or an error if suit or rank is invalid.
func NewCard(suit uint8, rank uint8) (Card, error) {
	if suit > 3 || rank == 0 || rank > 13 {
		return Card{}, fmt.Errorf("invalid card %d, %d", suit, rank)
	}

	return Card{
		suit: suit,
		rank: rank,
	}, nil
}

// ConvertCard converts a raw card number (1-52) to a Card. Card numbers map to
// suits in order (clubs, diamonds, hearts, spades) with ranks 1-13 within each
// suit. Returns an error if the card number is outside the valid range.
func ConvertCard(rawCard int) (Card, error) {
	if rawCard > 52 || rawCard < 1 {
		return Card{}, fmt.Errorf("the card to convert has an invalid value: %d", rawCard)
	}

	suit := uint8((rawCard - 1) / 13)
	rank := uint8((rawCard-1)%13 + 1)
	return NewCard(suit, rank)
}

// CardToInt converts a Card to its integer representation (1-52).
// This is the inverse operation of ConvertCard.
func CardToInt(card Card) int {
	return int(card.suit)*13 + int(card.rank)
}

// Suit returns the suit value of the Card (0-3: clubs, diamonds, hearts, spades).
func (c Card) Suit() uint8 {
	return c.suit
}

// Rank returns the rank value of the Card (1-13: ace through king).
func (c Card) Rank() uint8 {
	return c.rank
}

// String returns a human-readable representation of the Card using suit symbols
// (♣, ♦, ♥, ♠) and rank abbreviations (A, J, Q, K, or number).
func (c Card) String() string {
	if c.rank == 0 {
		return FaceDown
	}

	var suit string
	switch c.suit {
	case Club:
		suit = "♣"
	case Diamond:
		suit = "♦"
	case Heart:
		suit = "♥"
	case Spade:
		suit = "♠"
	default:
		suit = "?"
	}

	var rankStr string
	switch c.rank {
	case Ace:
		rankStr = "A"
	case Jack:
		rankStr = "J"
	case Queen:
		rankStr = "Q"
	case King:
		rankStr = "K"
	default:
		rankStr = fmt.Sprintf("%d", c.rank)
	}
	return rankStr + suit
}
