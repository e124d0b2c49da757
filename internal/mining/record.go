// Package mining drives the puzzle-mining wave loop: seeding a frontier,
// de-duplicating it against everything seen so far, delegating analysis to
// an engine pool, partitioning verified puzzles from the rest, expanding
// puzzles into their opponent replies, and flushing both streams to disk.
package mining

import (
	"time"

	"github.com/hailam/puzzleforge/internal/analysis"
	"github.com/hailam/puzzleforge/internal/board"
)

// Record is one candidate or analyzed position in the mining pipeline: an
// optional parent (the position it was reached from), the position itself,
// bookkeeping metadata, and the Analysis a worker fills in during the
// wave's analyse step.
type Record struct {
	Parent      *board.Position // nil for seed records
	Position    *board.Position
	Tags        []string
	Engine      string
	Description string
	Created     time.Time
	Analysis    *analysis.Analysis
}

// NewRecord builds a Record ready for the frontier. Analysis is left nil
// until a worker fills it in.
func NewRecord(parent, position *board.Position, engine, description string, tags []string, created time.Time) *Record {
	return &Record{
		Parent:      parent,
		Position:    position,
		Tags:        tags,
		Engine:      engine,
		Description: description,
		Created:     created,
	}
}

// ParentFEN returns the parent's FEN, or "" if this record has no parent.
func (r *Record) ParentFEN() string {
	if r.Parent == nil {
		return ""
	}
	return r.Parent.ToFEN()
}
