package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/puzzleforge/internal/board"
	"github.com/hailam/puzzleforge/internal/filter"
	"github.com/hailam/puzzleforge/internal/protocol"
)

// writeFakeEngine writes script as an executable shell-script "engine" in
// a temporary directory and returns its path. fakeEngineScript below speaks
// just enough UCI to drive the worker's handshake and one search: it
// answers "uci" with "uciok", "isready" with "readyok", and "go ..." with a
// fixed info/bestmove sequence.
func writeFakeEngine(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fakeengine.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

const fakeEngineScript = `#!/bin/sh
while read -r line; do
  case "$line" in
    uci) echo uciok ;;
    isready) echo readyok ;;
    go*) echo "info depth 10 score cp 55 nodes 1000 pv e2e4 e7e5"; echo "bestmove e2e4" ;;
  esac
done
`

func testDescriptor(path string) *protocol.Descriptor {
	return &protocol.Descriptor{
		Path:           path,
		IsReadyLine:    "isready",
		ReadyOkToken:   "readyok",
		SetPosition:    "position fen %s",
		NodesOption:    "nodes %d",
		DurationOption: "movetime %d",
	}
}

func TestSpawnHandshake(t *testing.T) {
	path := writeFakeEngine(t, fakeEngineScript)
	w, err := Spawn(testDescriptor(path))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer w.Close()

	if w.State() != StateReady {
		t.Errorf("State() = %v, want StateReady", w.State())
	}
}

func TestAnalyzeProducesAnalysis(t *testing.T) {
	path := writeFakeEngine(t, fakeEngineScript)
	w, err := Spawn(testDescriptor(path))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer w.Close()

	pos := board.NewPosition()
	a, err := w.Analyze(pos, nil, SearchParams{NodesCap: 100000, DurationMs: 1000})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.IsEmpty() {
		t.Fatal("expected non-empty analysis")
	}
	if got := a.BestMove(); got != "e2e4" {
		t.Errorf("BestMove() = %q, want e2e4", got)
	}
	if w.State() != StateReady {
		t.Errorf("State() after Analyze = %v, want StateReady", w.State())
	}
}

func TestAnalyzeBrokenEngineIsFatal(t *testing.T) {
	// This "engine" exits immediately after the handshake, so any search
	// hits an unexpected EOF. The automatic revival starts a fresh copy whose
	// search fails the same way, so Analyze reports a FatalError.
	path := writeFakeEngine(t, `#!/bin/sh
read -r line
echo uciok
`)
	w, err := Spawn(testDescriptor(path))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer w.Close()

	pos := board.NewPosition()
	_, err = w.Analyze(pos, nil, SearchParams{NodesCap: 100000, DurationMs: 1000})
	if err == nil {
		t.Fatal("expected an error from a dead engine")
	}
	var fatal *FatalError
	if !asFatal(err, &fatal) {
		t.Errorf("expected FatalError, got %T: %v", err, err)
	}
}

func asFatal(err error, target **FatalError) bool {
	if fe, ok := err.(*FatalError); ok {
		*target = fe
		return true
	}
	return false
}

func TestAnalyzeRespectsAccelerateEarlyExit(t *testing.T) {
	// An engine that keeps emitting info lines but never sends bestmove on
	// its own; if accelerate early-exit didn't send "stop", this test
	// would hang until the caller's own timeout machinery (not exercised
	// here) kicked in. depth>=100 is false at the first (depth 1) info
	// line, so the accelerate filter rejects the position immediately and
	// "stop" must be sent; the engine (scripted to answer "stop" with
	// bestmove) then completes.
	path := writeFakeEngine(t, `#!/bin/sh
while read -r line; do
  case "$line" in
    uci) echo uciok ;;
    isready) echo readyok ;;
    go*) echo "info depth 1 score cp 10 nodes 10 pv d2d4" ;;
    stop) echo "bestmove d2d4" ;;
  esac
done
`)
	w, err := Spawn(testDescriptor(path))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	defer w.Close()

	accelerate, err := filter.Parse("depth>=100")
	if err != nil {
		t.Fatalf("filter.Parse: %v", err)
	}

	pos := board.NewPosition()
	a, err := w.Analyze(pos, accelerate, SearchParams{NodesCap: 100000, DurationMs: 60000})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := a.BestMove(); got != "d2d4" {
		t.Errorf("BestMove() = %q, want d2d4", got)
	}
}
