// Command puzzleforge drives the puzzle-mining pipeline from the command
// line: it loads an engine protocol descriptor, builds a worker pool,
// seeds a frontier from random positions, a FEN list, or a PGN file, and
// runs waves of analysis-verify-expand-flush until a cap is hit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hailam/puzzleforge/internal/enginepool"
	"github.com/hailam/puzzleforge/internal/filter"
	"github.com/hailam/puzzleforge/internal/mining"
	"github.com/hailam/puzzleforge/internal/output"
	"github.com/hailam/puzzleforge/internal/protocol"
	"github.com/hailam/puzzleforge/internal/store"
)

const (
	exitSuccess      = 0
	exitRuntimeError = 1
	exitUsageError   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		protocolPath    = flag.String("protocol", "", "path to the engine protocol TOML descriptor")
		maxNodes        = flag.Int64("max-nodes", 1_000_000, "per-position engine node cap")
		maxDuration     = flag.Duration("max-duration", 2*time.Second, "per-position engine wall-clock cap")
		multiPV         = flag.Int("multipv", 1, "number of PV lines to request per search, if the engine supports it")
		engineInstances = flag.Int("engine-instances", 1, "number of parallel engine workers")
		maxWaves        = flag.Int("max-waves", 100, "maximum number of mining waves")
		maxFrontier     = flag.Int("max-frontier", 256, "maximum frontier size per wave")
		maxTotal        = flag.Int("max-total", 10000, "maximum number of positions analysed across the whole run")
		randomCount     = flag.Int("random-count", 16, "number of random seeds per refill")
		chess960        = flag.Bool("chess960", false, "use Chess960 starting arrangements for random seeds")
		randomInfinite  = flag.Bool("random-infinite", false, "keep refilling the frontier with random seeds when it runs dry")

		seedFEN = flag.String("seed-fen", "", "path to a FEN list file")
		seedPGN = flag.String("seed-pgn", "", "path to a PGN file")

		accelerateDSL = flag.String("puzzle-accelerate", "gate=AND;empty=true", "early-exit filter DSL string")
		qualityDSL    = flag.String("puzzle-quality", "depth>=12", "quality predicate DSL string")
		winningDSL    = flag.String("puzzle-winning", "eval>=300", "winning predicate DSL string")
		drawingDSL    = flag.String("puzzle-drawing", "eval>=-50;eval<=50", "drawing predicate DSL string")

		outputPath = flag.String("output", "./puzzleforge-output", "output directory or file-like path stem")

		cacheDir = flag.String("cache-dir", "", "optional BadgerDB directory caching analyses across runs, keyed by engine protocol and caps")
	)
	flag.Parse()

	if *protocolPath == "" {
		fmt.Fprintln(os.Stderr, "puzzleforge: -protocol is required")
		return exitUsageError
	}

	descriptor, err := protocol.Load(*protocolPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: %v\n", err)
		return exitUsageError
	}

	var cache *store.Cache
	var protocolHash string
	if *cacheDir != "" {
		raw, err := os.ReadFile(*protocolPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "puzzleforge: %v\n", err)
			return exitUsageError
		}
		protocolHash = store.ProtocolHash(raw)

		cache, err = store.Open(*cacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "puzzleforge: %v\n", err)
			return exitUsageError
		}
		defer cache.Close()
	}

	accelerate, err := filter.Parse(*accelerateDSL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: invalid puzzle-accelerate filter: %v\n", err)
		return exitUsageError
	}
	quality, err := filter.Parse(*qualityDSL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: invalid puzzle-quality filter: %v\n", err)
		return exitUsageError
	}
	winning, err := filter.Parse(*winningDSL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: invalid puzzle-winning filter: %v\n", err)
		return exitUsageError
	}
	drawing, err := filter.Parse(*drawingDSL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: invalid puzzle-drawing filter: %v\n", err)
		return exitUsageError
	}
	verify := filter.Verify(quality, winning, drawing)

	cfg := mining.Config{
		Accelerate:    accelerate,
		Verify:        verify,
		NodesCap:      *maxNodes,
		DurationCapMs: maxDuration.Milliseconds(),
		MultiPV:       *multiPV,
		Infinite:      *randomInfinite,
		Chess960:      *chess960,
		RandomSeeds:   *randomCount,
		MaxFrontier:   *maxFrontier,
		MaxWaves:      *maxWaves,
		MaxTotal:      *maxTotal,
		Cache:         cache,
		ProtocolHash:  protocolHash,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: %v\n", err)
		return exitUsageError
	}

	initial, err := loadSeeds(*seedFEN, *seedPGN, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: %v\n", err)
		return exitUsageError
	}
	if len(initial) == 0 && !cfg.Infinite {
		fmt.Fprintln(os.Stderr, "puzzleforge: no seeds given and -random-infinite not set")
		return exitUsageError
	}

	pool, err := enginepool.Create(*engineInstances, descriptor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "puzzleforge: %v\n", err)
		return exitRuntimeError
	}
	defer pool.Close()

	puzzlePath, nonpuzzlePath := outputPaths(*outputPath, *chess960)
	puzzleOut := output.NewAppender(puzzlePath)
	nonpuzzleOut := output.NewAppender(nonpuzzlePath)

	pipeline := mining.NewPipeline(pool, cfg, puzzleOut, nonpuzzleOut)

	if err := pipeline.Run(context.Background(), initial); err != nil {
		log.Printf("puzzleforge: mining run failed: %v", err)
		return exitRuntimeError
	}

	stats := pipeline.Stats()
	log.Printf("puzzleforge: done: waves=%d processed=%d seen=%d analyzed=%d",
		stats.Waves, stats.Processed, stats.Seen, stats.Analyzed)

	return exitSuccess
}

func loadSeeds(fenPath, pgnPath string, cfg mining.Config) ([]*mining.Record, error) {
	var records []*mining.Record

	if fenPath != "" {
		f, err := os.Open(fenPath)
		if err != nil {
			return nil, fmt.Errorf("seed-fen: %w", err)
		}
		defer f.Close()
		fenRecords, err := mining.LoadFENList(f)
		if err != nil {
			return nil, fmt.Errorf("seed-fen: %w", err)
		}
		records = append(records, fenRecords...)
	}

	if pgnPath != "" {
		data, err := os.ReadFile(pgnPath)
		if err != nil {
			return nil, fmt.Errorf("seed-pgn: %w", err)
		}
		records = append(records, mining.LoadPGN(string(data))...)
	}

	if fenPath == "" && pgnPath == "" && cfg.Infinite {
		return nil, nil
	}

	return records, nil
}

// outputPaths derives the puzzle/non-puzzle file paths from the -output
// flag: a directory gets the standard "<variant>-<epoch_ms>.{puzzles,
// nonpuzzles}.json" names, while a file-like path has its extension
// stripped and ".puzzles.json"/".nonpuzzles.json" appended to the stem.
func outputPaths(root string, chess960 bool) (puzzlePath, nonpuzzlePath string) {
	variant := "standard"
	if chess960 {
		variant = "chess960"
	}

	ext := filepath.Ext(root)
	if ext == ".json" || ext == ".jsonl" {
		stem := strings.TrimSuffix(root, ext)
		return stem + ".puzzles.json", stem + ".nonpuzzles.json"
	}

	stamp := time.Now().UnixMilli()
	prefix := filepath.Join(root, fmt.Sprintf("%s-%d", variant, stamp))
	return prefix + ".puzzles.json", prefix + ".nonpuzzles.json"
}
