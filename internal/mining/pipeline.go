package mining

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/hailam/puzzleforge/internal/analysis"
	"github.com/hailam/puzzleforge/internal/board"
	"github.com/hailam/puzzleforge/internal/enginepool"
	"github.com/hailam/puzzleforge/internal/output"
	"github.com/hailam/puzzleforge/internal/store"
	"github.com/hailam/puzzleforge/internal/worker"
)

// Pipeline drives the wave loop described in §4.3: refill, de-duplicate,
// analyse, partition into puzzles/non-puzzles, expand puzzles into their
// opponent replies, and flush both streams, wave after wave, until a cap
// is hit or the frontier runs dry.
//
// seen_set and analyzed_set are owned exclusively by the goroutine calling
// Run; nothing here is touched by the worker pool's goroutines.
type Pipeline struct {
	pool *enginepool.Pool
	cfg  Config

	puzzleOut    *output.Appender
	nonpuzzleOut *output.Appender

	seenSet     map[string]struct{}
	analyzedSet map[string]struct{}

	waves     int
	processed int

	rng *rand.Rand
}

// NewPipeline builds a Pipeline ready to Run. cfg must already have passed
// Validate.
func NewPipeline(pool *enginepool.Pool, cfg Config, puzzleOut, nonpuzzleOut *output.Appender) *Pipeline {
	return &Pipeline{
		pool:         pool,
		cfg:          cfg,
		puzzleOut:    puzzleOut,
		nonpuzzleOut: nonpuzzleOut,
		seenSet:      make(map[string]struct{}),
		analyzedSet:  make(map[string]struct{}),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Stats reports the pipeline's progress counters for driver-level logging.
type Stats struct {
	Waves     int
	Processed int
	Seen      int
	Analyzed  int
}

func (p *Pipeline) Stats() Stats {
	return Stats{Waves: p.waves, Processed: p.processed, Seen: len(p.seenSet), Analyzed: len(p.analyzedSet)}
}

// Run executes the wave loop starting from the given frontier, which may
// be empty only if cfg.Infinite is set (otherwise nothing will ever run).
func (p *Pipeline) Run(ctx context.Context, frontier []*Record) error {
	for _, r := range frontier {
		p.seenSet[r.Position.ToFEN()] = struct{}{}
	}

	for {
		// 1. Refill (conditional).
		for len(frontier) == 0 && p.cfg.Infinite && p.waves < p.cfg.MaxWaves && p.processed < p.cfg.MaxTotal {
			seeds, err := GenerateRandomSeeds(p.cfg.RandomSeeds, p.cfg.Chess960, p.rng)
			if err != nil {
				return fmt.Errorf("mining: refill: %w", err)
			}
			for _, s := range seeds {
				frontier = append(frontier, NewRecord(nil, s, "", "", nil, time.Now()))
			}
			frontier = p.dedupe(frontier)
		}

		// 2. De-duplicate.
		frontier = p.dedupe(frontier)

		// 3. Termination check.
		if len(frontier) == 0 || p.waves >= p.cfg.MaxWaves || p.processed >= p.cfg.MaxTotal {
			return nil
		}

		// 4. Cap.
		if len(frontier) > p.cfg.MaxFrontier {
			frontier = frontier[:p.cfg.MaxFrontier]
		}

		// 5. Analyse. Positions already answered by the cache are filled in
		// directly and never sent to the engine pool; only cache misses go
		// to AnalyseAll, and their fresh results are written back.
		var positions []*board.Position
		var misses []int
		for i, r := range frontier {
			if a, ok := p.cacheGet(r.Position); ok {
				frontier[i].Analysis = a
				continue
			}
			positions = append(positions, r.Position)
			misses = append(misses, i)
		}

		if len(positions) > 0 {
			params := worker.SearchParams{
				NodesCap:   p.cfg.NodesCap,
				DurationMs: p.cfg.DurationCapMs,
				MultiPV:    p.cfg.MultiPV,
				Chess960:   p.cfg.Chess960,
			}
			results, err := p.pool.AnalyseAll(ctx, positions, p.cfg.Accelerate, params)
			if err != nil {
				return fmt.Errorf("mining: analyse: %w", err)
			}
			for j, a := range results {
				if a == nil {
					a = analysis.New()
				}
				idx := misses[j]
				frontier[idx].Analysis = a
				p.cachePut(frontier[idx].Position, a)
			}
		}

		// 6. Partition.
		var puzzles, nonpuzzles []*Record
		for _, r := range frontier {
			if p.processed >= p.cfg.MaxTotal {
				break
			}
			p.processed++
			p.analyzedSet[r.Position.ToFEN()] = struct{}{}

			if p.cfg.Verify.Evaluate(r.Analysis) {
				puzzles = append(puzzles, r)
			} else {
				nonpuzzles = append(nonpuzzles, r)
			}
		}

		// 7. Expand (puzzles only).
		var next []*Record
		for _, r := range puzzles {
			if p.processed+len(next) >= p.cfg.MaxTotal {
				break
			}
			next = p.expand(r, next)
		}

		// 8. Flush.
		if err := p.flush(p.puzzleOut, puzzles); err != nil {
			log.Printf("mining: puzzle flush: %v", err)
		}
		if err := p.flush(p.nonpuzzleOut, nonpuzzles); err != nil {
			log.Printf("mining: non-puzzle flush: %v", err)
		}

		// 9. Advance.
		frontier = next
		p.waves++
	}
}

// dedupe drops Records already in analyzed_set and collapses duplicate
// FENs within frontier itself, keeping the first occurrence. Surviving
// FENs are added to seen_set. Running this twice on the same slice is a
// no-op the second time: every surviving FEN is already in analyzed_set's
// complement and seen_set, so nothing new is dropped or added.
func (p *Pipeline) dedupe(frontier []*Record) []*Record {
	seenThisWave := make(map[string]struct{}, len(frontier))
	out := make([]*Record, 0, len(frontier))

	for _, r := range frontier {
		fen := r.Position.ToFEN()
		if _, analyzed := p.analyzedSet[fen]; analyzed {
			continue
		}
		if _, dup := seenThisWave[fen]; dup {
			continue
		}
		seenThisWave[fen] = struct{}{}
		p.seenSet[fen] = struct{}{}
		out = append(out, r)
	}
	return out
}

// expand plays r's PV1 best move, then enumerates every legal reply from
// the resulting intermediate position, appending an unseen-successor
// Record for each to next.
func (p *Pipeline) expand(r *Record, next []*Record) []*Record {
	bestMove := r.Analysis.BestMove()
	if bestMove == "" {
		return next
	}
	m, err := board.ParseMove(bestMove, r.Position)
	if err != nil {
		return next
	}

	intermediate := r.Position.Copy()
	intermediate.MakeMove(m)

	replies := intermediate.GenerateLegalMoves()
	for i := 0; i < replies.Len(); i++ {
		if p.processed+len(next) >= p.cfg.MaxTotal {
			break
		}
		reply := replies.Get(i)
		replySAN := reply.ToSAN(intermediate)
		successor := intermediate.Copy()
		successor.MakeMove(reply)

		fen := successor.ToFEN()
		if _, analyzed := p.analyzedSet[fen]; analyzed {
			continue
		}
		if _, seen := p.seenSet[fen]; seen {
			continue
		}
		p.seenSet[fen] = struct{}{}

		parentCopy := intermediate.Copy()
		next = append(next, NewRecord(parentCopy, successor, r.Engine, replySAN, nil, time.Now()))
	}
	return next
}

// cacheKey builds the store.Key for pos under the current run's protocol
// and caps. Callers must only use it when p.cfg.Cache is non-nil.
func (p *Pipeline) cacheKey(pos *board.Position) store.Key {
	return store.Key{
		ProtocolHash:  p.cfg.ProtocolHash,
		FEN:           pos.ToFEN(),
		NodesCap:      p.cfg.NodesCap,
		DurationCapMs: p.cfg.DurationCapMs,
	}
}

// cacheGet consults the cross-run cache, if configured. A lookup error is
// logged and treated as a miss rather than failing the whole wave.
func (p *Pipeline) cacheGet(pos *board.Position) (*analysis.Analysis, bool) {
	if p.cfg.Cache == nil {
		return nil, false
	}
	a, ok, err := p.cfg.Cache.Get(p.cacheKey(pos))
	if err != nil {
		log.Printf("mining: cache get: %v", err)
		return nil, false
	}
	return a, ok
}

// cachePut writes a's result to the cross-run cache, if configured. A
// write error is logged, not fatal: the cache is strictly best-effort.
func (p *Pipeline) cachePut(pos *board.Position, a *analysis.Analysis) {
	if p.cfg.Cache == nil {
		return
	}
	if err := p.cfg.Cache.Put(p.cacheKey(pos), a); err != nil {
		log.Printf("mining: cache put: %v", err)
	}
}

func (p *Pipeline) flush(out *output.Appender, records []*Record) error {
	objs := make([]any, len(records))
	for i, r := range records {
		objs[i] = recordToObject(r)
	}
	return out.Append(objs)
}

// recordToObject renders a Record into the JSON shape §6.2 requires: raw
// UCI lines are preserved verbatim so downstream tooling can reparse PV
// summaries without the core having lost any information.
func recordToObject(r *Record) map[string]any {
	var parent any
	if r.Parent != nil {
		parent = r.Parent.ToFEN()
	}

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	var rawLines []string
	if r.Analysis != nil {
		rawLines = r.Analysis.RawLines
	}

	return map[string]any{
		"created":     r.Created.UnixMilli(),
		"engine":      r.Engine,
		"parent":      parent,
		"position":    r.Position.ToFEN(),
		"description": r.Description,
		"tags":        tags,
		"analysis":    rawLines,
	}
}
