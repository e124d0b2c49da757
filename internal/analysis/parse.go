package analysis

import (
	"strconv"
	"strings"
)

// ParseInfoLine parses one "info ..." line emitted by a UCI engine and
// returns the PV it describes, or ok=false if the line carries no usable
// score (engines emit bare "info string ..." lines for diagnostics, and
// early-iteration lines sometimes omit depth or score entirely).
//
// Unknown tokens are skipped rather than rejected, since engines differ in
// which optional keys they emit (currententries, currmove, refutation...).
func ParseInfoLine(line string) (pv *PV, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return nil, false
	}
	fields = fields[1:]

	p := &PV{MultiPV: 1, Bound: BoundExact}
	haveScore := false

	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if v, n, ok := readInt(fields, i+1); ok {
				p.Depth = int(v)
				i = n
			}
		case "seldepth":
			if v, n, ok := readInt(fields, i+1); ok {
				p.Seldepth = int(v)
				i = n
			}
		case "multipv":
			if v, n, ok := readInt(fields, i+1); ok {
				p.MultiPV = int(v)
				i = n
			}
		case "nodes":
			if v, n, ok := readInt(fields, i+1); ok {
				p.Nodes = v
				i = n
			}
		case "nps":
			if v, n, ok := readInt(fields, i+1); ok {
				p.NPS = v
				i = n
			}
		case "hashfull":
			if v, n, ok := readInt(fields, i+1); ok {
				p.HashfullPermille = int(v)
				i = n
			}
		case "tbhits":
			if v, n, ok := readInt(fields, i+1); ok {
				p.TBHits = v
				i = n
			}
		case "time":
			if v, n, ok := readInt(fields, i+1); ok {
				p.TimeMs = v
				i = n
			}
		case "score":
			e, next, good := parseScore(fields, i+1)
			if good {
				p.Eval = e
				haveScore = true
				i = next
			}
		case "lowerbound":
			p.Bound = BoundLower
		case "upperbound":
			p.Bound = BoundUpper
		case "wdl":
			w, n, good := readInt(fields, i+1)
			d, n2, good2 := readInt(fields, n+1)
			l, n3, good3 := readInt(fields, n2+1)
			if good && good2 && good3 {
				p.WDL = &WDL{Win: int(w), Draw: int(d), Loss: int(l)}
				i = n3
			}
		case "pv":
			p.PVMoves = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}

	if !haveScore {
		return nil, false
	}
	return p, true
}

// ParseBestMove parses a "bestmove <move> [ponder <move>]" line, returning
// the move in UCI long-algebraic form, or "" if the line has no move (the
// engine resigns or the game is already over, in which case engines send
// "bestmove (none)").
func ParseBestMove(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return ""
	}
	if fields[1] == "(none)" {
		return ""
	}
	return fields[1]
}

func readInt(fields []string, idx int) (value int64, nextIdx int, ok bool) {
	if idx >= len(fields) {
		return 0, idx - 1, false
	}
	v, err := strconv.ParseInt(fields[idx], 10, 64)
	if err != nil {
		return 0, idx - 1, false
	}
	return v, idx, true
}

// parseScore handles "score cp N" and "score mate N", returning the index
// of the last field it consumed.
func parseScore(fields []string, idx int) (Eval, int, bool) {
	if idx >= len(fields) {
		return Eval{}, idx - 1, false
	}
	switch fields[idx] {
	case "cp":
		v, next, ok := readInt(fields, idx+1)
		if !ok {
			return Eval{}, idx, false
		}
		return Eval{Kind: EvalCentipawn, Value: int(v)}, next, true
	case "mate":
		v, next, ok := readInt(fields, idx+1)
		if !ok {
			return Eval{}, idx, false
		}
		return Eval{Kind: EvalMate, Value: int(v)}, next, true
	default:
		return Eval{}, idx - 1, false
	}
}
