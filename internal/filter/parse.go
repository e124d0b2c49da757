package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/puzzleforge/internal/analysis"
)

// ParseError reports a DSL syntax problem, carrying the offending fragment
// so a caller can surface a precise diagnostic rather than a bare string.
type ParseError struct {
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filter: %s: %q", e.Reason, e.Fragment)
}

// Parse compiles a DSL string into an immutable Node tree. Defaults: break=1,
// null=false, empty=true, gate=AND when "gate=" is omitted.
func Parse(s string) (*Node, error) {
	keys, err := splitKeys(s)
	if err != nil {
		return nil, err
	}
	return parseNode(keys)
}

func parseNode(keys []string) (*Node, error) {
	n := &Node{Gate: GateAnd, Break: 1, EmptyResult: true}

	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		switch {
		case strings.HasPrefix(key, "gate="):
			g, err := parseGate(strings.TrimPrefix(key, "gate="))
			if err != nil {
				return nil, err
			}
			n.Gate = g
		case strings.HasPrefix(key, "break="):
			v, err := strconv.Atoi(strings.TrimPrefix(key, "break="))
			if err != nil {
				return nil, &ParseError{Fragment: key, Reason: "invalid break index"}
			}
			n.Break = v
		case strings.HasPrefix(key, "null="):
			v, err := parseBool(strings.TrimPrefix(key, "null="))
			if err != nil {
				return nil, err
			}
			n.NullResult = v
		case strings.HasPrefix(key, "empty="):
			v, err := parseBool(strings.TrimPrefix(key, "empty="))
			if err != nil {
				return nil, err
			}
			n.EmptyResult = v
		case strings.HasPrefix(key, "leaf[") && strings.HasSuffix(key, "]"):
			inner := key[len("leaf[") : len(key)-1]
			innerKeys, err := splitKeys(inner)
			if err != nil {
				return nil, err
			}
			child, err := parseNode(innerKeys)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		default:
			p, err := parsePredicate(key)
			if err != nil {
				return nil, err
			}
			n.Predicates = append(n.Predicates, p)
		}
	}

	return n, nil
}

// splitKeys splits a node body on top-level ";" separators, treating
// "leaf[...]" as opaque so nested separators don't get cut.
func splitKeys(s string) ([]string, error) {
	var keys []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, &ParseError{Fragment: s, Reason: "unbalanced ]"}
			}
		case ';':
			if depth == 0 {
				keys = append(keys, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, &ParseError{Fragment: s, Reason: "unbalanced ["}
	}
	keys = append(keys, s[start:])
	return keys, nil
}

func parseGate(s string) (Gate, error) {
	g, ok := gateNames[strings.TrimSpace(s)]
	if !ok {
		return 0, &ParseError{Fragment: s, Reason: "unknown gate"}
	}
	return g, nil
}

func parseBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, &ParseError{Fragment: s, Reason: "expected true or false"}
	}
}

var cmpTokens = []struct {
	token string
	cmp   Cmp
}{
	// ">=" and "<=" must be matched before their single-character prefixes.
	{">=", CmpGE},
	{"<=", CmpLE},
	{">", CmpGT},
	{"<", CmpLT},
	{"=", CmpEQ},
}

func parsePredicate(s string) (Predicate, error) {
	for _, ct := range cmpTokens {
		idx := strings.Index(s, ct.token)
		if idx <= 0 {
			continue
		}
		attrName := strings.TrimSpace(s[:idx])
		valueStr := strings.TrimSpace(s[idx+len(ct.token):])
		attr, ok := attrNames[attrName]
		if !ok {
			return Predicate{}, &ParseError{Fragment: s, Reason: "unknown attribute"}
		}
		val, err := parseValue(attr, valueStr)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Attr: attr, Cmp: ct.cmp, Value: val}, nil
	}
	return Predicate{}, &ParseError{Fragment: s, Reason: "missing comparator"}
}

// parseValue interprets a predicate's right-hand side per attribute: WDL
// triples for "chances", mate/decimal/integer literals for "eval", plain
// integers otherwise.
func parseValue(attr Attr, s string) (Value, error) {
	if attr == AttrChances {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Value{}, &ParseError{Fragment: s, Reason: "chances value needs three comma-separated permille numbers"}
		}
		nums := make([]int, 3)
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return Value{}, &ParseError{Fragment: s, Reason: "invalid WDL component"}
			}
			nums[i] = n
		}
		return Value{IsWDL: true, WDL: analysis.WDL{Win: nums[0], Draw: nums[1], Loss: nums[2]}}, nil
	}

	if attr == AttrEval {
		if strings.HasPrefix(s, "#") {
			n, err := strconv.ParseInt(s[1:], 10, 64)
			if err != nil {
				return Value{}, &ParseError{Fragment: s, Reason: "invalid mate literal"}
			}
			return Value{IsMate: true, Number: n}, nil
		}
		if strings.Contains(s, ".") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, &ParseError{Fragment: s, Reason: "invalid pawn decimal"}
			}
			return Value{Number: int64(f * 100)}, nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Value{}, &ParseError{Fragment: s, Reason: "invalid number"}
	}
	return Value{Number: n}, nil
}
