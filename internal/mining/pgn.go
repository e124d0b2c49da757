package mining

import (
	"strings"
	"time"

	"github.com/hailam/puzzleforge/internal/board"
)

// LoadPGN walks every game in text (concatenated PGN, standard one-game-
// per-tag-pair-block layout), traversing the mainline and every variation.
// Each ply yields a Record with Parent set to the pre-move position and
// Position to the post-move position, so a single game can seed many
// independent frontier entries.
func LoadPGN(text string) []*Record {
	var records []*Record
	for _, game := range splitGames(text) {
		movetext := stripTagPairs(game)
		tokens := tokenizeMovetext(movetext)
		walkVariation(board.NewPosition(), tokens, &records)
	}
	return records
}

// splitGames breaks a multi-game PGN blob into per-game chunks, using the
// blank line that conventionally follows a game's tag-pair block as the
// game boundary is unreliable across sources, so instead each chunk starts
// at a "[Event " tag.
func splitGames(text string) []string {
	var games []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[Event ") && cur.Len() > 0 {
			games = append(games, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if cur.Len() > 0 {
		games = append(games, cur.String())
	}
	return games
}

func stripTagPairs(game string) string {
	var sb strings.Builder
	for _, line := range strings.Split(game, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "[") {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte(' ')
	}
	return sb.String()
}

// token is one unit of movetext: a SAN move, or a parenthesized variation
// rendered as its own nested token list.
type token struct {
	move     string
	variation []token
}

// tokenizeMovetext splits movetext into SAN moves and nested variations,
// discarding move numbers, comments in braces, and result markers.
func tokenizeMovetext(s string) []token {
	var tokens []token
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '{':
			depth := 1
			i++
			for i < len(runes) && depth > 0 {
				if runes[i] == '{' {
					depth++
				} else if runes[i] == '}' {
					depth--
				}
				i++
			}
		case c == '(':
			depth := 1
			start := i + 1
			i++
			for i < len(runes) && depth > 0 {
				if runes[i] == '(' {
					depth++
				} else if runes[i] == ')' {
					depth--
				}
				i++
			}
			inner := string(runes[start : i-1])
			tokens = append(tokens, token{variation: tokenizeMovetext(inner)})
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			start := i
			for i < len(runes) && runes[i] != ' ' && runes[i] != '\t' && runes[i] != '\n' &&
				runes[i] != '\r' && runes[i] != '{' && runes[i] != '(' {
				i++
			}
			word := string(runes[start:i])
			if san := stripMoveNumber(word); san != "" {
				tokens = append(tokens, token{move: san})
			}
		}
	}
	return tokens
}

func stripMoveNumber(word string) string {
	switch word {
	case "1-0", "0-1", "1/2-1/2", "*":
		return ""
	}
	// Strip a leading "12." or "12..." move-number prefix.
	i := 0
	for i < len(word) && word[i] >= '0' && word[i] <= '9' {
		i++
	}
	if i == 0 {
		return word
	}
	rest := word[i:]
	rest = strings.TrimLeft(rest, ".")
	return rest
}

// walkVariation applies tokens (a mainline or one variation's moves) from
// pos, appending a Record per ply. A variation token is an alternative to
// the move immediately preceding it in the same list, so it recurses from
// that move's pre-move position, not from the position the mainline move
// produced.
func walkVariation(pos *board.Position, tokens []token, records *[]*Record) {
	cur := pos.Copy()
	var beforeLastMove *board.Position

	for _, tok := range tokens {
		if tok.variation != nil {
			if beforeLastMove != nil {
				walkVariation(beforeLastMove, tok.variation, records)
			}
			continue
		}

		m, err := board.ParseSAN(tok.move, cur)
		if err != nil || m == board.NoMove {
			continue
		}

		beforeLastMove = cur.Copy()
		cur.MakeMove(m)
		next := cur.Copy()

		*records = append(*records, NewRecord(beforeLastMove, next, "", tok.move, nil, time.Now()))
	}
}
