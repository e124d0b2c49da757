package analysis

import "testing"

func TestParseInfoLineCentipawn(t *testing.T) {
	pv, ok := ParseInfoLine("info depth 12 seldepth 18 multipv 1 score cp 34 nodes 123456 nps 800000 hashfull 123 tbhits 0 time 154 pv e2e4 e7e5 g1f3")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pv.Depth != 12 || pv.Seldepth != 18 || pv.MultiPV != 1 {
		t.Errorf("unexpected header fields: %+v", pv)
	}
	if pv.Eval.Kind != EvalCentipawn || pv.Eval.Value != 34 {
		t.Errorf("unexpected eval: %+v", pv.Eval)
	}
	if pv.Nodes != 123456 || pv.NPS != 800000 || pv.HashfullPermille != 123 {
		t.Errorf("unexpected stats: %+v", pv)
	}
	if got := pv.BestMove(); got != "e2e4" {
		t.Errorf("BestMove() = %q, want e2e4", got)
	}
}

func TestParseInfoLineMate(t *testing.T) {
	pv, ok := ParseInfoLine("info depth 5 score mate 3 nodes 900 pv h5f7 e8e7 f7e7")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pv.Eval.Kind != EvalMate || pv.Eval.Value != 3 {
		t.Errorf("unexpected eval: %+v", pv.Eval)
	}
}

func TestParseInfoLineWDL(t *testing.T) {
	pv, ok := ParseInfoLine("info depth 20 score cp 55 wdl 620 300 80 nodes 1 pv e2e4")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pv.WDL == nil || pv.WDL.Win != 620 || pv.WDL.Draw != 300 || pv.WDL.Loss != 80 {
		t.Errorf("unexpected wdl: %+v", pv.WDL)
	}
}

func TestParseInfoLineUpperLowerBound(t *testing.T) {
	pv, ok := ParseInfoLine("info depth 10 score cp -40 upperbound nodes 1")
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pv.Bound != BoundUpper {
		t.Errorf("Bound = %v, want upper", pv.Bound)
	}
}

func TestParseInfoLineStringIgnored(t *testing.T) {
	if _, ok := ParseInfoLine("info string NNUE evaluation using nn-abc.nnue"); ok {
		t.Error("expected ok=false for a bare info string line")
	}
}

func TestParseBestMove(t *testing.T) {
	if got := ParseBestMove("bestmove e2e4 ponder e7e5"); got != "e2e4" {
		t.Errorf("ParseBestMove() = %q, want e2e4", got)
	}
	if got := ParseBestMove("bestmove (none)"); got != "" {
		t.Errorf("ParseBestMove() = %q, want empty", got)
	}
}

func TestAnalysisUpdateLatestWins(t *testing.T) {
	a := New()
	a.Update(&PV{MultiPV: 1, Depth: 10, PVMoves: []string{"e2e4"}})
	a.Update(&PV{MultiPV: 1, Depth: 12, PVMoves: []string{"d2d4"}})

	if a.IsEmpty() {
		t.Fatal("expected non-empty analysis")
	}
	if got := a.BestMove(); got != "d2d4" {
		t.Errorf("BestMove() = %q, want d2d4 (latest update should win)", got)
	}
}

func TestAnalysisEmpty(t *testing.T) {
	a := New()
	if !a.IsEmpty() {
		t.Error("fresh Analysis should be empty")
	}
	if a.BestMove() != "" {
		t.Error("BestMove() on empty Analysis should be empty string")
	}
}
