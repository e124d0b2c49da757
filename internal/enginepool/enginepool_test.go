package enginepool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/puzzleforge/internal/board"
	"github.com/hailam/puzzleforge/internal/protocol"
	"github.com/hailam/puzzleforge/internal/worker"
)

func writeFakeEngine(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fakeengine.sh")
	script := `#!/bin/sh
while read -r line; do
  case "$line" in
    uci) echo uciok ;;
    isready) echo readyok ;;
    go*) echo "info depth 10 score cp 20 nodes 500 pv e2e4"; echo "bestmove e2e4" ;;
  esac
done
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

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

func TestCreateAndClose(t *testing.T) {
	path := writeFakeEngine(t)
	p, err := Create(3, testDescriptor(path))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	if len(p.workers) != 3 {
		t.Errorf("len(workers) = %d, want 3", len(p.workers))
	}
}

func TestCreateZeroInstancesFails(t *testing.T) {
	path := writeFakeEngine(t)
	if _, err := Create(0, testDescriptor(path)); err == nil {
		t.Error("expected error for instances < 1")
	}
}

// TestAnalyseAllRecoversFromWorkerCrash simulates an engine that dies
// mid-search on its very first "go" command (as if it had just crashed)
// and answers normally afterwards. AnalyseAll must still return a full,
// correctly ordered result set: the affected worker revives itself (or,
// failing that, the pool retries on another worker) and the batch
// completes with no error.
func TestAnalyseAllRecoversFromWorkerCrash(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "crash-lock")
	scriptPath := filepath.Join(dir, "crashonce.sh")

	// mkdir is atomic across concurrent processes, so exactly one "go"
	// across the whole pool wins the race and crashes; every other
	// invocation, from any worker, answers normally.
	script := `#!/bin/sh
LOCK="` + lockPath + `"
while read -r line; do
  case "$line" in
    uci) echo uciok ;;
    isready) echo readyok ;;
    go*)
      if mkdir "$LOCK" 2>/dev/null; then
        exit 1
      fi
      echo "info depth 10 score cp 20 nodes 500 pv e2e4"
      echo "bestmove e2e4"
      ;;
  esac
done
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}

	p, err := Create(2, testDescriptor(scriptPath))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	positions := make([]*board.Position, 5)
	for i := range positions {
		positions[i] = board.NewPosition()
	}

	results, err := p.AnalyseAll(context.Background(), positions, nil, worker.SearchParams{NodesCap: 100000, DurationMs: 1000})
	if err != nil {
		t.Fatalf("AnalyseAll: %v", err)
	}
	if len(results) != len(positions) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(positions))
	}
	for i, a := range results {
		if a == nil || a.BestMove() != "e2e4" {
			t.Errorf("results[%d] = %+v, want a recovered BestMove e2e4", i, a)
		}
	}
}

func TestAnalyseAllPreservesOrder(t *testing.T) {
	path := writeFakeEngine(t)
	p, err := Create(2, testDescriptor(path))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	positions := []*board.Position{board.NewPosition(), board.NewPosition(), board.NewPosition()}
	results, err := p.AnalyseAll(context.Background(), positions, nil, worker.SearchParams{NodesCap: 100000, DurationMs: 1000})
	if err != nil {
		t.Fatalf("AnalyseAll: %v", err)
	}
	if len(results) != len(positions) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(positions))
	}
	for i, a := range results {
		if a == nil || a.BestMove() != "e2e4" {
			t.Errorf("results[%d] = %+v, want BestMove e2e4", i, a)
		}
	}
}
