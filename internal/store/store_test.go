package store

import (
	"testing"

	"github.com/hailam/puzzleforge/internal/analysis"
)

func TestPutGetRoundTrip(t *testing.T) {
	cache, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	key := Key{ProtocolHash: "abc123", FEN: "startpos", NodesCap: 1000, DurationCapMs: 500}

	a := analysis.New()
	a.Update(&analysis.PV{MultiPV: 1, Depth: 12, Eval: analysis.Eval{Kind: analysis.EvalCentipawn, Value: 30}, PVMoves: []string{"e2e4"}})

	if err := cache.Put(key, a); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.BestMove() != "e2e4" {
		t.Errorf("BestMove() = %q, want e2e4", got.BestMove())
	}
}

func TestGetMiss(t *testing.T) {
	cache, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	_, ok, err := cache.Get(Key{ProtocolHash: "x", FEN: "y", NodesCap: 1, DurationCapMs: 1})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestDifferentCapsAreDifferentKeys(t *testing.T) {
	cache, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cache.Close()

	base := Key{ProtocolHash: "abc", FEN: "startpos", NodesCap: 1000, DurationCapMs: 500}
	a := analysis.New()
	a.Update(&analysis.PV{MultiPV: 1, PVMoves: []string{"d2d4"}})
	if err := cache.Put(base, a); err != nil {
		t.Fatalf("Put: %v", err)
	}

	other := base
	other.NodesCap = 2000
	_, ok, err := cache.Get(other)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected miss for a different nodes cap")
	}
}
