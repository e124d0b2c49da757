package mining

import (
	"strings"
	"testing"

	"github.com/hailam/puzzleforge/internal/board"
)

func TestLoadFENListSkipsCommentsAndBlanks(t *testing.T) {
	input := `
# a comment
// another comment

rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1
r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1
not a fen at all
`
	records, err := LoadFENList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadFENList: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	for _, r := range records {
		if r.Parent != nil {
			t.Errorf("single-FEN line should leave Parent nil, got %v", r.Parent)
		}
	}
}

func TestLoadFENListEmpty(t *testing.T) {
	records, err := LoadFENList(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFENList: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestLoadFENListSecondFENIsParent(t *testing.T) {
	parentFEN := board.StartFEN
	positionFEN := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"

	input := positionFEN + " " + parentFEN + "\n"
	records, err := LoadFENList(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadFENList: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Parent == nil {
		t.Fatal("expected a non-nil parent from the line's second FEN")
	}
	if records[0].Parent.ToFEN() != parentFEN {
		t.Errorf("Parent.ToFEN() = %q, want %q", records[0].Parent.ToFEN(), parentFEN)
	}
	if records[0].Position.ToFEN() != positionFEN {
		t.Errorf("Position.ToFEN() = %q, want %q", records[0].Position.ToFEN(), positionFEN)
	}
}
