package poker

import "testing"

func TestEvaluatorRanksPairOverHighCard(t *testing.T) {
	ranker := Eval7Ranker{}
	community := []Card{tc(Club, 2), tc(Diamond, 7), tc(Heart, 9), tc(Spade, Jack), tc(Club, King)}

	pair, err := ranker.Evaluate([2]Card{tc(Spade, 9), tc(Diamond, 4)}, community)
	if err != nil {
		t.Fatal(err)
	}
	high, err := ranker.Evaluate([2]Card{tc(Spade, 3), tc(Diamond, 4)}, community)
	if err != nil {
		t.Fatal(err)
	}
	if pair.Compare(high) != 1 {
		t.Fatalf("pair of nines should beat high card: %d vs %d", pair, high)
	}
	if high.Compare(pair) != -1 {
		t.Fatal("comparison must be antisymmetric")
	}
}

func TestEvaluatorWheelStraight(t *testing.T) {
	ranker := Eval7Ranker{}
	// A-2-3-4-5 must rank as a straight, above any pair on this board.
	community := []Card{tc(Club, 2), tc(Diamond, 3), tc(Heart, 4), tc(Spade, 9), tc(Club, Jack)}

	wheel, err := ranker.Evaluate([2]Card{tc(Spade, Ace), tc(Diamond, 5)}, community)
	if err != nil {
		t.Fatal(err)
	}
	trips, err := ranker.Evaluate([2]Card{tc(Spade, 9), tc(Diamond, 9)}, community)
	if err != nil {
		t.Fatal(err)
	}
	if wheel.Compare(trips) != 1 {
		t.Fatalf("wheel straight should beat three of a kind: %d vs %d", wheel, trips)
	}
}

func TestEvaluatorTieDetection(t *testing.T) {
	ranker := Eval7Ranker{}
	// Board plays for both: same straight, different suits in hand.
	community := []Card{tc(Club, 5), tc(Diamond, 6), tc(Heart, 7), tc(Spade, 8), tc(Club, 9)}

	a, err := ranker.Evaluate([2]Card{tc(Spade, 2), tc(Diamond, 3)}, community)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ranker.Evaluate([2]Card{tc(Heart, 2), tc(Club, 3)}, community)
	if err != nil {
		t.Fatal(err)
	}
	if a.Compare(b) != 0 {
		t.Fatalf("identical hands must tie: %d vs %d", a, b)
	}
}

func TestEvaluatorPartialBoards(t *testing.T) {
	ranker := Eval7Ranker{}
	hole := [2]Card{tc(Spade, Queen), tc(Heart, Queen)}

	tests := []struct {
		name      string
		community []Card
		wantErr   bool
	}{
		{"flop", []Card{tc(Club, 2), tc(Diamond, 7), tc(Heart, 9)}, false},
		{"turn", []Card{tc(Club, 2), tc(Diamond, 7), tc(Heart, 9), tc(Spade, 3)}, false},
		{"river", []Card{tc(Club, 2), tc(Diamond, 7), tc(Heart, 9), tc(Spade, 3), tc(Club, 6)}, false},
		{"too few", []Card{tc(Club, 2), tc(Diamond, 7)}, true},
		{"too many", []Card{tc(Club, 2), tc(Diamond, 7), tc(Heart, 9), tc(Spade, 3), tc(Club, 6), tc(Club, 10)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ranker.Evaluate(hole, tt.community)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestEvaluatorSixCardsUsesBestFive(t *testing.T) {
	ranker := Eval7Ranker{}
	// On the turn the pair of queens must be found among the six cards.
	community := []Card{tc(Club, 2), tc(Diamond, 7), tc(Heart, 9), tc(Spade, Queen)}

	pair, err := ranker.Evaluate([2]Card{tc(Heart, Queen), tc(Diamond, 3)}, community)
	if err != nil {
		t.Fatal(err)
	}
	high, err := ranker.Evaluate([2]Card{tc(Heart, 4), tc(Diamond, 3)}, community)
	if err != nil {
		t.Fatal(err)
	}
	if pair.Compare(high) != 1 {
		t.Fatalf("pair of queens should beat high card on the turn: %d vs %d", pair, high)
	}
}
