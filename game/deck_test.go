package game

import (
	"math/rand"
	"testing"

	"github.com/wfunc/huntserver/models"
)

func countKinds(t *testing.T, cards []models.Card) map[models.Card]int {
	t.Helper()
	counts := make(map[models.Card]int)
	for _, c := range cards {
		counts[c]++
	}
	return counts
}

func TestNewDeck_Composition(t *testing.T) {
	deck := NewDeck()

	if len(deck) != models.DeckSize {
		t.Fatalf("Expected deck size %d, got %d", models.DeckSize, len(deck))
	}

	counts := countKinds(t, deck)
	if len(counts) != len(models.CardKinds()) {
		t.Errorf("Expected %d kinds, got %d", len(models.CardKinds()), len(counts))
	}
	for _, kind := range models.CardKinds() {
		if counts[kind] != models.CopiesPerKind {
			t.Errorf("Expected %d copies of %q, got %d", models.CopiesPerKind, kind, counts[kind])
		}
	}
}

func TestShuffleDeck_PreservesMultiset(t *testing.T) {
	deck := NewDeck()
	ShuffleDeck(rand.New(rand.NewSource(7)), deck)

	counts := countKinds(t, deck)
	for _, kind := range models.CardKinds() {
		if counts[kind] != models.CopiesPerKind {
			t.Errorf("Shuffle changed multiplicity of %q: got %d", kind, counts[kind])
		}
	}
}

func TestShuffleDeck_SeededIsDeterministic(t *testing.T) {
	first := NewDeck()
	second := NewDeck()
	ShuffleDeck(rand.New(rand.NewSource(7)), first)
	ShuffleDeck(rand.New(rand.NewSource(7)), second)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Same seed produced different orders at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestRollDie_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		roll := RollDie(rng)
		if roll < 1 || roll > models.DiceSides {
			t.Fatalf("Roll %d out of range [1, %d]", roll, models.DiceSides)
		}
	}
}

func TestFirstHunter_EarliestStrictMax(t *testing.T) {
	members := []string{"A", "B", "C", "D"}
	rolls := map[string]int{"A": 12, "B": 19, "C": 19, "D": 5}

	if winner := FirstHunter(members, rolls); winner != "B" {
		t.Errorf("Expected B to win on the earliest max, got %q", winner)
	}
}

func TestFirstHunter_SingleMember(t *testing.T) {
	if winner := FirstHunter([]string{"A"}, map[string]int{"A": 1}); winner != "A" {
		t.Errorf("Expected the only member to win, got %q", winner)
	}
}
