package mining

import (
	"math/rand"
	"testing"

	"github.com/hailam/puzzleforge/internal/board"
)

func TestGenerateRandomSeedsNotInCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seeds, err := GenerateRandomSeeds(20, false, rng)
	if err != nil {
		t.Fatalf("GenerateRandomSeeds: %v", err)
	}
	if len(seeds) != 20 {
		t.Fatalf("len(seeds) = %d, want 20", len(seeds))
	}
	for i, s := range seeds {
		if s.InCheck() {
			t.Errorf("seed %d is in check: %s", i, s.ToFEN())
		}
	}
}

func TestGenerateRandomSeedsChess960NotInCheck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seeds, err := GenerateRandomSeeds(10, true, rng)
	if err != nil {
		t.Fatalf("GenerateRandomSeeds: %v", err)
	}
	for i, s := range seeds {
		if s.InCheck() {
			t.Errorf("chess960 seed %d is in check: %s", i, s.ToFEN())
		}
	}
}

func TestChess960StartFENValid(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 20; i++ {
		fen := chess960StartFEN(rng)
		if _, err := board.ParseFEN(fen); err != nil {
			t.Fatalf("chess960StartFEN produced invalid FEN %q: %v", fen, err)
		}
	}
}
