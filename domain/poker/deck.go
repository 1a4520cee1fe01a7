package poker

import (
	"fmt"
	"math/rand"

	"github.com/fxamacker/cbor/v2"
)

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// Deck holds the undealt portion of a shuffled 52-card deck.
// Cards are dealt from the front, without replacement.
type Deck struct {
	cards []Card
}

// NewDeck builds the 52-card identity set and Fisher-Yates shuffles it
// using the provided random source.
func NewDeck(r *rand.Rand) *Deck {
	cards := make([]Card, 0, DeckSize)
	for raw := 1; raw <= DeckSize; raw++ {
		c, _ := ConvertCard(raw)
		cards = append(cards, c)
	}
	for i := len(cards) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return &Deck{cards: cards}
}

// Deal removes and returns the first n cards from the deck.
// Returns ErrInsufficientCards if n is negative or exceeds the remaining count.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", ErrInsufficientCards, n, len(d.cards))
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// deckBlob is the wire form of a deck snapshot. Each card is its 1-52
// raw number, in deal order.
type deckBlob struct {
	Cards []uint8 `cbor:"1,keyasint"`
}

// MarshalBinary serializes the remaining cards, in order, to an opaque
// CBOR blob. Used for mid-hand state transfer.
func (d *Deck) MarshalBinary() ([]byte, error) {
	blob := deckBlob{Cards: make([]uint8, len(d.cards))}
	for i, c := range d.cards {
		blob.Cards[i] = uint8(CardToInt(c))
	}
	return cbor.Marshal(blob)
}

// UnmarshalBinary restores a deck from a blob produced by MarshalBinary.
// The restored deck has the same remaining cards in the same order.
func (d *Deck) UnmarshalBinary(data []byte) error {
	var blob deckBlob
	if err := cbor.Unmarshal(data, &blob); err != nil {
		return fmt.Errorf("decode deck blob: %w", err)
	}
	cards := make([]Card, len(blob.Cards))
	for i, raw := range blob.Cards {
		c, err := ConvertCard(int(raw))
		if err != nil {
			return fmt.Errorf("deck blob card %d: %w", i, err)
		}
		cards[i] = c
	}
	d.cards = cards
	return nil
}
