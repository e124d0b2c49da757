package mining

import (
	"fmt"
	"math/rand"

	"github.com/hailam/puzzleforge/internal/board"
)

// minRandomPlies and maxRandomPlies bound the random walk used to reach a
// seed position: long enough to leave the opening book, short enough that
// positions still have legal moves left almost always.
const (
	minRandomPlies = 10
	maxRandomPlies = 40
)

// GenerateRandomSeeds produces count legal positions whose side to move is
// not in check, starting from the standard or a Chess960 back-rank setup
// per chess960. Each seed is reached by a random walk of legal moves from
// its starting array; a walk that lands in check is rejected and retried
// (property 10: in-check seeds are never emitted).
func GenerateRandomSeeds(count int, chess960 bool, rng *rand.Rand) ([]*board.Position, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	seeds := make([]*board.Position, 0, count)
	for len(seeds) < count {
		start, err := startingPosition(chess960, rng)
		if err != nil {
			return nil, err
		}
		pos := randomWalk(start, rng)
		if pos.InCheck() {
			continue
		}
		seeds = append(seeds, pos)
	}
	return seeds, nil
}

func startingPosition(chess960 bool, rng *rand.Rand) (*board.Position, error) {
	if !chess960 {
		return board.NewPosition(), nil
	}
	fen := chess960StartFEN(rng)
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("mining: chess960 start FEN %q: %w", fen, err)
	}
	return pos, nil
}

// chess960StartFEN builds one of the 960 Fischer Random starting back-rank
// arrangements: bishops on opposite-colored squares, king between the two
// rooks, knights and queen filling the rest.
func chess960StartFEN(rng *rand.Rand) string {
	var rank [8]byte

	placeOn := func(parity int, piece byte) {
		for {
			i := rng.Intn(8)
			if i%2 != parity {
				continue
			}
			if rank[i] == 0 {
				rank[i] = piece
				return
			}
		}
	}
	placeOn(0, 'B')
	placeOn(1, 'B')

	placeEmpty := func(piece byte) {
		for {
			i := rng.Intn(8)
			if rank[i] == 0 {
				rank[i] = piece
				return
			}
		}
	}
	placeEmpty('Q')
	placeEmpty('N')
	placeEmpty('N')

	// Remaining three empty squares get R, K, R in file order so the king
	// ends up between the rooks.
	var remaining []int
	for i, p := range rank {
		if p == 0 {
			remaining = append(remaining, i)
		}
	}
	rank[remaining[0]] = 'R'
	rank[remaining[1]] = 'K'
	rank[remaining[2]] = 'R'

	white := string(rank[:])
	black := make([]byte, 8)
	for i, c := range []byte(white) {
		black[i] = c - 'A' + 'a'
	}

	return fmt.Sprintf("%s/pppppppp/8/8/8/8/PPPPPPPP/%s w KQkq - 0 1", string(black), white)
}

// randomWalk plays a random number of random legal moves from start,
// stopping early if a position has no legal moves (checkmate/stalemate).
func randomWalk(start *board.Position, rng *rand.Rand) *board.Position {
	pos := start.Copy()
	plies := minRandomPlies + rng.Intn(maxRandomPlies-minRandomPlies+1)

	for i := 0; i < plies; i++ {
		moves := pos.GenerateLegalMoves()
		if moves.Len() == 0 {
			break
		}
		m := moves.Get(rng.Intn(moves.Len()))
		pos.MakeMove(m)
	}
	return pos
}
