package poker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalJSON encodes a Card as a two-character string like "As", "Td" or "2c".
func (c Card) MarshalJSON() ([]byte, error) {
	r, ok := rankChar(c.rank)
	if !ok {
		return nil, fmt.Errorf("invalid rank: %d", c.rank)
	}
	s, ok := suitChar(c.suit)
	if !ok {
		return nil, fmt.Errorf("invalid suit: %d", c.suit)
	}
	return json.Marshal(string([]byte{r, s}))
}

// UnmarshalJSON decodes "As", "td", "2C", etc. into a Card. Rank and suit
// characters are accepted in either case; ten must be written 'T', not '10'.
func (c *Card) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return fmt.Errorf("invalid card literal %q (want 2 chars like As, Td)", s)
	}

	rank, ok := charRank(s[0])
	if !ok {
		return fmt.Errorf("invalid rank char %q", s[0])
	}

	sc := s[1]
	if sc >= 'A' && sc <= 'Z' {
		sc += 'a' - 'A'
	}
	var suit uint8
	switch sc {
	case 'c':
		suit = Club
	case 'd':
		suit = Diamond
	case 'h':
		suit = Heart
	case 's':
		suit = Spade
	default:
		return fmt.Errorf("invalid suit char %q (use c/d/h/s)", s[1])
	}

	c.rank = rank
	c.suit = suit
	return nil
}

func rankChar(rank uint8) (byte, bool) {
	switch {
	case rank == Ace:
		return 'A', true
	case rank >= 2 && rank <= 9:
		return '0' + rank, true
	case rank == 10:
		return 'T', true
	case rank == Jack:
		return 'J', true
	case rank == Queen:
		return 'Q', true
	case rank == King:
		return 'K', true
	default:
		return 0, false
	}
}

func charRank(ch byte) (uint8, bool) {
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}
	switch {
	case ch == 'A':
		return Ace, true
	case ch >= '2' && ch <= '9':
		return ch - '0', true
	case ch == 'T':
		return 10, true
	case ch == 'J':
		return Jack, true
	case ch == 'Q':
		return Queen, true
	case ch == 'K':
		return King, true
	default:
		return 0, false
	}
}

func suitChar(suit uint8) (byte, bool) {
	switch suit {
	case Club:
		return 'c', true
	case Diamond:
		return 'd', true
	case Heart:
		return 'h', true
	case Spade:
		return 's', true
	default:
		return 0, false
	}
}
