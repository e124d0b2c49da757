package mining

import (
	"bufio"
	"io"
	"log"
	"strings"
	"time"

	"github.com/hailam/puzzleforge/internal/board"
)

// LoadFENList reads one or two FENs per non-comment, non-blank line from
// r, yielding one Record per line. The first FEN is the Record's
// position; an optional second FEN on the same line supplies its parent
// (§6.3 "one or two FENs per line"). Lines starting with "#" or "//" are
// comments, blank lines are ignored, and lines that fail to parse are
// logged and skipped rather than aborting the whole load.
func LoadFENList(r io.Reader) ([]*Record, error) {
	var records []*Record

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 6 {
			log.Printf("mining: skipping unparseable FEN line %q: too few fields", line)
			continue
		}

		pos, err := board.ParseFEN(strings.Join(fields[:6], " "))
		if err != nil {
			log.Printf("mining: skipping unparseable FEN line %q: %v", line, err)
			continue
		}

		var parent *board.Position
		if len(fields) >= 12 {
			parent, err = board.ParseFEN(strings.Join(fields[6:12], " "))
			if err != nil {
				log.Printf("mining: skipping unparseable parent FEN in line %q: %v", line, err)
				parent = nil
			}
		}

		records = append(records, NewRecord(parent, pos, "", "", nil, time.Now()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
