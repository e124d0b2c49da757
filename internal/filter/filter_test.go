package filter

import (
	"testing"

	"github.com/hailam/puzzleforge/internal/analysis"
)

func mkAnalysis(pvs ...*analysis.PV) *analysis.Analysis {
	a := analysis.New()
	for _, pv := range pvs {
		a.Update(pv)
	}
	return a
}

func TestParseSimplePredicate(t *testing.T) {
	n, err := Parse("depth>=10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(n.Predicates) != 1 || n.Predicates[0].Attr != AttrDepth || n.Predicates[0].Cmp != CmpGE {
		t.Fatalf("unexpected node: %+v", n)
	}

	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 12})
	if !n.Evaluate(a) {
		t.Error("expected true for depth 12 >= 10")
	}

	a2 := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 5})
	if n.Evaluate(a2) {
		t.Error("expected false for depth 5 >= 10")
	}
}

func TestParseGateAnd(t *testing.T) {
	n, err := Parse("gate=AND;depth>=10;nodes>1000")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 12, Nodes: 2000})
	if !n.Evaluate(a) {
		t.Error("expected true")
	}
	a2 := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 12, Nodes: 500})
	if n.Evaluate(a2) {
		t.Error("expected false (nodes predicate fails)")
	}
}

func TestParseNestedLeaf(t *testing.T) {
	n, err := Parse("gate=OR;leaf[depth>=20];leaf[eval>100]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(n.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(n.Children))
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 5, Eval: analysis.Eval{Kind: analysis.EvalCentipawn, Value: 150}})
	if !n.Evaluate(a) {
		t.Error("expected true via second leaf")
	}
}

func TestNullResultDefault(t *testing.T) {
	n, err := Parse("break=2;depth>=1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 10})
	if n.Evaluate(a) {
		t.Error("expected false (null default) for missing multipv 2")
	}
}

func TestNullResultOverride(t *testing.T) {
	n, err := Parse("break=2;null=true;depth>=1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 10})
	if !n.Evaluate(a) {
		t.Error("expected true (null override) for missing multipv 2")
	}
}

func TestEmptyNodeDefaultsTrue(t *testing.T) {
	n, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 1})
	if !n.Evaluate(a) {
		t.Error("expected true (empty default)")
	}
}

func TestEvalMateLiteral(t *testing.T) {
	n, err := Parse("eval>#0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mate3 := mkAnalysis(&analysis.PV{MultiPV: 1, Eval: analysis.Eval{Kind: analysis.EvalMate, Value: 3}})
	if !n.Evaluate(mate3) {
		t.Error("expected positive mate to beat mate#0 threshold")
	}
}

func TestEvalMateBeatsCentipawn(t *testing.T) {
	n, err := Parse("eval>500")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mate5 := mkAnalysis(&analysis.PV{MultiPV: 1, Eval: analysis.Eval{Kind: analysis.EvalMate, Value: 5}})
	if !n.Evaluate(mate5) {
		t.Error("expected positive mate to beat any centipawn value")
	}

	negMate := mkAnalysis(&analysis.PV{MultiPV: 1, Eval: analysis.Eval{Kind: analysis.EvalMate, Value: -5}})
	if n.Evaluate(negMate) {
		t.Error("expected negative mate to lose to any centipawn value")
	}
}

func TestEvalShorterMateWins(t *testing.T) {
	n, err := Parse("eval>#5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mate3 := mkAnalysis(&analysis.PV{MultiPV: 1, Eval: analysis.Eval{Kind: analysis.EvalMate, Value: 3}})
	if !n.Evaluate(mate3) {
		t.Error("expected mate in 3 to beat mate in 5 threshold (shorter mate wins)")
	}
}

func TestEvalPawnDecimal(t *testing.T) {
	n, err := Parse("eval>=1.5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Eval: analysis.Eval{Kind: analysis.EvalCentipawn, Value: 150}})
	if !n.Evaluate(a) {
		t.Error("expected 1.5 pawns to parse as 150 centipawns")
	}
}

func TestChancesPredicate(t *testing.T) {
	n, err := Parse("chances>=600,0,0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, WDL: &analysis.WDL{Win: 700, Draw: 200, Loss: 100}})
	if !n.Evaluate(a) {
		t.Error("expected win=700 >= 600")
	}
}

func TestVerifyConstructedProgrammatically(t *testing.T) {
	quality := Quality(10)
	winningNode, err := Parse("eval>300")
	if err != nil {
		t.Fatalf("Parse winning: %v", err)
	}
	drawingNode, err := Parse("eval>=-50;eval<=50")
	if err != nil {
		t.Fatalf("Parse drawing: %v", err)
	}
	verify := Verify(quality, winningNode, drawingNode)

	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 15, Eval: analysis.Eval{Kind: analysis.EvalCentipawn, Value: 400}})
	if !verify.Evaluate(a) {
		t.Error("expected verify to pass for deep, winning analysis")
	}

	shallow := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 2, Eval: analysis.Eval{Kind: analysis.EvalCentipawn, Value: 400}})
	if verify.Evaluate(shallow) {
		t.Error("expected verify to fail when quality (depth) is too shallow")
	}
}

func TestStringRoundTripsThroughParse(t *testing.T) {
	n, err := Parse("gate=OR;depth>=10;leaf[eval>100]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := n.String()
	n2, err := Parse(s)
	if err != nil {
		t.Fatalf("re-parse of %q failed: %v", s, err)
	}
	a := mkAnalysis(&analysis.PV{MultiPV: 1, Depth: 12})
	if n.Evaluate(a) != n2.Evaluate(a) {
		t.Error("round-tripped filter evaluates differently than original")
	}
}

func TestUnbalancedBracketIsParseError(t *testing.T) {
	if _, err := Parse("leaf[depth>=10"); err == nil {
		t.Error("expected parse error for unbalanced bracket")
	}
}
