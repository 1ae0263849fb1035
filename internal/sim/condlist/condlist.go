package condlist

import (
	"fmt"
	"strconv"
	"strings"
)

// Condlist is a parsed conditional branch list of the form
//
//	{+camp_clear -raid =dist_to(job:12) health<0.3} section %+alerted -calm%
//
// Branches are comma separated and tried in order; the first branch whose
// conditions all hold supplies the section. A branch with no condition
// block is an unconditional fallback.
type Condlist []Branch

type Branch struct {
	Conds   []Cond
	Section string
	Effects []Effect
}

// Unconditional reports whether the branch has no guard.
func (b Branch) Unconditional() bool { return len(b.Conds) == 0 }

type CondKind int

const (
	CondInfoSet CondKind = iota + 1 // +name
	CondInfoUnset                   // -name
	CondPred                        // =name(a:b)
	CondNotPred                     // !name(a:b)
	CondCmp                         // field<0.3
)

type CmpOp int

const (
	OpLT CmpOp = iota + 1
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
)

type Cond struct {
	Kind  CondKind
	Name  string
	Args  []string
	Op    CmpOp
	Value float64
}

// Effect sets (+) or clears (-) an info flag when its branch is picked.
type Effect struct {
	Set  bool
	Info string
}

// Parse compiles a condlist expression. Parsing is strict: malformed
// guards are configuration errors and must surface at load time, not
// during simulation.
func Parse(expr string) (Condlist, error) {
	var out Condlist
	for _, part := range splitBranches(expr) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		br, err := parseBranch(part)
		if err != nil {
			return nil, fmt.Errorf("condlist %q: %w", expr, err)
		}
		out = append(out, br)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("condlist %q: empty", expr)
	}
	return out, nil
}

// splitBranches splits on top-level commas, ignoring commas inside
// {...} guards and %...% effect blocks.
func splitBranches(expr string) []string {
	var parts []string
	depth := 0
	inEffect := false
	start := 0
	for i, r := range expr {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case '%':
			inEffect = !inEffect
		case ',':
			if depth == 0 && !inEffect {
				parts = append(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, expr[start:])
	return parts
}

func parseBranch(s string) (Branch, error) {
	var br Branch
	if strings.HasPrefix(s, "{") {
		end := strings.Index(s, "}")
		if end < 0 {
			return br, fmt.Errorf("unterminated guard")
		}
		conds, err := parseGuard(s[1:end])
		if err != nil {
			return br, err
		}
		br.Conds = conds
		s = strings.TrimSpace(s[end+1:])
	}
	if i := strings.Index(s, "%"); i >= 0 {
		end := strings.LastIndex(s, "%")
		if end == i {
			return br, fmt.Errorf("unterminated effect block")
		}
		effects, err := parseEffects(s[i+1 : end])
		if err != nil {
			return br, err
		}
		br.Effects = effects
		s = strings.TrimSpace(s[:i] + s[end+1:])
	}
	br.Section = strings.TrimSpace(s)
	return br, nil
}

func parseGuard(s string) ([]Cond, error) {
	var conds []Cond
	for _, tok := range strings.Fields(s) {
		c, err := parseCond(tok)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func parseCond(tok string) (Cond, error) {
	switch {
	case strings.HasPrefix(tok, "+"):
		if len(tok) == 1 {
			return Cond{}, fmt.Errorf("empty info condition %q", tok)
		}
		return Cond{Kind: CondInfoSet, Name: tok[1:]}, nil
	case strings.HasPrefix(tok, "-"):
		if len(tok) == 1 {
			return Cond{}, fmt.Errorf("empty info condition %q", tok)
		}
		return Cond{Kind: CondInfoUnset, Name: tok[1:]}, nil
	case strings.HasPrefix(tok, "="):
		name, args, err := parseCall(tok[1:])
		if err != nil {
			return Cond{}, err
		}
		return Cond{Kind: CondPred, Name: name, Args: args}, nil
	case strings.HasPrefix(tok, "!"):
		name, args, err := parseCall(tok[1:])
		if err != nil {
			return Cond{}, err
		}
		return Cond{Kind: CondNotPred, Name: name, Args: args}, nil
	default:
		return parseCmp(tok)
	}
}

func parseCall(s string) (name string, args []string, err error) {
	if s == "" {
		return "", nil, fmt.Errorf("empty predicate name")
	}
	open := strings.Index(s, "(")
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("unterminated predicate call %q", s)
	}
	name = s[:open]
	inner := s[open+1 : len(s)-1]
	if inner != "" {
		args = strings.Split(inner, ":")
	}
	if name == "" {
		return "", nil, fmt.Errorf("empty predicate name in %q", s)
	}
	return name, args, nil
}

var cmpOps = []struct {
	lit string
	op  CmpOp
}{
	{"<=", OpLE}, {">=", OpGE}, {"==", OpEQ}, {"!=", OpNE}, {"<", OpLT}, {">", OpGT},
}

func parseCmp(tok string) (Cond, error) {
	for _, c := range cmpOps {
		i := strings.Index(tok, c.lit)
		if i <= 0 {
			continue
		}
		field := tok[:i]
		raw := tok[i+len(c.lit):]
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Cond{}, fmt.Errorf("comparison %q: bad number %q", tok, raw)
		}
		return Cond{Kind: CondCmp, Name: field, Op: c.op, Value: v}, nil
	}
	return Cond{}, fmt.Errorf("unrecognized condition %q", tok)
}

func parseEffects(s string) ([]Effect, error) {
	var out []Effect
	for _, tok := range strings.Fields(s) {
		switch {
		case strings.HasPrefix(tok, "+") && len(tok) > 1:
			out = append(out, Effect{Set: true, Info: tok[1:]})
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			out = append(out, Effect{Set: false, Info: tok[1:]})
		default:
			return nil, fmt.Errorf("unrecognized effect %q", tok)
		}
	}
	return out, nil
}
