// Package filter implements the puzzle-verification DSL: a compact string
// grammar compiled into an immutable tree and evaluated against an
// engine Analysis to a boolean.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/puzzleforge/internal/analysis"
)

// Gate is the boolean combinator applied to a node's predicates and children.
type Gate int

const (
	GateAnd Gate = iota
	GateNotAnd
	GateOr
	GateNotOr
	GateXor
	GateXNotOr
	GateSame
	GateNotSame
)

var gateNames = map[string]Gate{
	"AND":     GateAnd,
	"NOT_AND": GateNotAnd,
	"OR":      GateOr,
	"NOT_OR":  GateNotOr,
	"XOR":     GateXor,
	"X_NOT_OR": GateXNotOr,
	"SAME":    GateSame,
	"NOT_SAME": GateNotSame,
}

func (g Gate) String() string {
	for name, v := range gateNames {
		if v == g {
			return name
		}
	}
	return "AND"
}

// Attr is a predicate attribute, resolved against a single PV Output.
type Attr int

const (
	AttrDepth Attr = iota
	AttrSeldepth
	AttrMultiPV
	AttrHashfull
	AttrNodes
	AttrNPS
	AttrTBHits
	AttrTime
	AttrEval
	AttrChances
)

var attrNames = map[string]Attr{
	"depth":    AttrDepth,
	"seldepth": AttrSeldepth,
	"multipv":  AttrMultiPV,
	"hashfull": AttrHashfull,
	"nodes":    AttrNodes,
	"nps":      AttrNPS,
	"tbhits":   AttrTBHits,
	"time":     AttrTime,
	"eval":     AttrEval,
	"chances":  AttrChances,
}

// Cmp is a predicate comparator.
type Cmp int

const (
	CmpGT Cmp = iota
	CmpGE
	CmpEQ
	CmpLE
	CmpLT
)

// Value is a predicate's typed right-hand side: a plain number, a mate
// literal, or a WDL triple (only "chances" predicates use the triple).
type Value struct {
	IsMate  bool
	IsWDL   bool
	Number  int64 // centipawns for eval, raw integer otherwise
	WDL     analysis.WDL
}

// Predicate compares one resolved attribute of a PV Output against Value.
type Predicate struct {
	Attr  Attr
	Cmp   Cmp
	Value Value
}

// Node is one level of the filter tree: a gate applied to this node's own
// predicates plus any nested child nodes, selecting its PV by break index.
type Node struct {
	Gate        Gate
	Break       int  // 1-based MultiPV index, default 1
	NullResult  bool // result when the selected PV is absent
	EmptyResult bool // result when the node has no predicates or children
	Predicates  []Predicate
	Children    []*Node
}

// Evaluate resolves this node's PV from a (recursively against the same
// Analysis) and combines predicate/child results with Gate.
func (n *Node) Evaluate(a *analysis.Analysis) bool {
	pv := a.Get(n.Break)
	if pv == nil {
		return n.NullResult
	}

	if len(n.Predicates) == 0 && len(n.Children) == 0 {
		return n.EmptyResult
	}

	var results []bool
	for _, p := range n.Predicates {
		results = append(results, p.evaluate(pv))
	}
	for _, c := range n.Children {
		results = append(results, c.Evaluate(a))
	}

	return combine(n.Gate, results)
}

func combine(gate Gate, results []bool) bool {
	trues := 0
	for _, r := range results {
		if r {
			trues++
		}
	}
	switch gate {
	case GateAnd:
		return trues == len(results)
	case GateNotAnd:
		return trues != len(results)
	case GateOr:
		return trues > 0
	case GateNotOr:
		return trues == 0
	case GateXor:
		return trues%2 == 1
	case GateXNotOr:
		return trues%2 == 0
	case GateSame:
		return trues == 0 || trues == len(results)
	case GateNotSame:
		return !(trues == 0 || trues == len(results))
	default:
		return false
	}
}

func (p Predicate) evaluate(pv *analysis.PV) bool {
	switch p.Attr {
	case AttrDepth:
		return compareInt(int64(pv.Depth), p.Cmp, p.Value.Number)
	case AttrSeldepth:
		return compareInt(int64(pv.Seldepth), p.Cmp, p.Value.Number)
	case AttrMultiPV:
		return compareInt(int64(pv.MultiPV), p.Cmp, p.Value.Number)
	case AttrHashfull:
		return compareInt(int64(pv.HashfullPermille), p.Cmp, p.Value.Number)
	case AttrNodes:
		return compareInt(pv.Nodes, p.Cmp, p.Value.Number)
	case AttrNPS:
		return compareInt(pv.NPS, p.Cmp, p.Value.Number)
	case AttrTBHits:
		return compareInt(pv.TBHits, p.Cmp, p.Value.Number)
	case AttrTime:
		return compareInt(pv.TimeMs, p.Cmp, p.Value.Number)
	case AttrEval:
		return evaluateEval(pv.Eval, p.Cmp, p.Value)
	case AttrChances:
		return evaluateChances(pv.WDL, p.Cmp, p.Value.WDL)
	default:
		return false
	}
}

func compareInt(lhs int64, cmp Cmp, rhs int64) bool {
	switch cmp {
	case CmpGT:
		return lhs > rhs
	case CmpGE:
		return lhs >= rhs
	case CmpEQ:
		return lhs == rhs
	case CmpLE:
		return lhs <= rhs
	case CmpLT:
		return lhs < rhs
	default:
		return false
	}
}

// evaluateEval handles mate-vs-centipawn comparison per the rules in the
// grammar: a positive mate beats any centipawn value, a negative mate loses
// to any centipawn value, and same-sign mates compare by magnitude (the
// shorter mate is the stronger evaluation).
func evaluateEval(e analysis.Eval, cmp Cmp, v Value) bool {
	if !e.IsValid() {
		return false
	}

	if !v.IsMate && e.Kind != analysis.EvalMate {
		return compareInt(int64(e.Value), cmp, v.Number)
	}

	// At least one side is a mate score; reduce to a signed ranking scalar
	// where mates always outrank centipawns of the same sign, and shorter
	// mates outrank longer ones.
	lhsRank := evalRank(e)
	rhsRank := mateRank(v)
	return compareInt(lhsRank, cmp, rhsRank)
}

// evalRank maps an Eval onto a totally-ordered scalar: mates get a huge
// magnitude offset by sign and inverted distance so that shorter mates sort
// further from zero, and centipawn scores are used directly. Mate 0 (the
// side to move is already mated) ranks below every other score.
func evalRank(e analysis.Eval) int64 {
	const mateBase = 1_000_000
	if e.Kind == analysis.EvalMate {
		if e.Value > 0 {
			return mateBase - int64(e.Value)
		}
		return -mateBase - int64(e.Value)
	}
	return int64(e.Value)
}

func mateRank(v Value) int64 {
	const mateBase = 1_000_000
	if v.IsMate {
		n := v.Number
		if n > 0 {
			return mateBase - n
		}
		return -mateBase - n
	}
	return v.Number
}

func evaluateChances(wdl *analysis.WDL, cmp Cmp, v analysis.WDL) bool {
	if wdl == nil {
		return false
	}
	// WDL triples have no natural total order; compare win-permille, the
	// attribute that "winning"/"drawing" style predicates care about, and
	// fall back to exact-triple equality for "=".
	if cmp == CmpEQ {
		return *wdl == v
	}
	return compareInt(int64(wdl.Win), cmp, int64(v.Win))
}

// Quality builds the canonical "quality" half of the verify filter: a node
// requiring a minimum search depth, so that shallow or aborted analyses
// never verify as puzzles.
func Quality(minDepth int) *Node {
	return &Node{
		Gate: GateAnd,
		Break: 1,
		Predicates: []Predicate{
			{Attr: AttrDepth, Cmp: CmpGE, Value: Value{Number: int64(minDepth)}},
		},
	}
}

// Verify builds the canonical compound filter verify = AND(quality,
// OR(winning, drawing)) programmatically, without reparsing any string.
func Verify(quality, winning, drawing *Node) *Node {
	return &Node{
		Gate: GateAnd,
		Break: 1,
		Children: []*Node{
			quality,
			{Gate: GateOr, Break: 1, Children: []*Node{winning, drawing}},
		},
	}
}

// String renders n back to the canonical DSL form it was (or could have
// been) parsed from.
func (n *Node) String() string {
	var parts []string
	parts = append(parts, "gate="+n.Gate.String())
	if n.Break != 1 {
		parts = append(parts, fmt.Sprintf("break=%d", n.Break))
	}
	if n.NullResult {
		parts = append(parts, "null=true")
	}
	if !n.EmptyResult {
		parts = append(parts, "empty=false")
	}
	for _, p := range n.Predicates {
		parts = append(parts, p.String())
	}
	for _, c := range n.Children {
		parts = append(parts, "leaf["+c.String()+"]")
	}
	return strings.Join(parts, ";")
}

func (p Predicate) String() string {
	name := "depth"
	for k, v := range attrNames {
		if v == p.Attr {
			name = k
			break
		}
	}
	cmp := map[Cmp]string{CmpGT: ">", CmpGE: ">=", CmpEQ: "=", CmpLE: "<=", CmpLT: "<"}[p.Cmp]

	if p.Attr == AttrChances {
		return fmt.Sprintf("%s%s%d,%d,%d", name, cmp, p.Value.WDL.Win, p.Value.WDL.Draw, p.Value.WDL.Loss)
	}
	if p.Attr == AttrEval && p.Value.IsMate {
		return fmt.Sprintf("%s%s#%d", name, cmp, p.Value.Number)
	}
	return fmt.Sprintf("%s%s%s", name, cmp, strconv.FormatInt(p.Value.Number, 10))
}
