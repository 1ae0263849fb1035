package condlist

import "fmt"

// ActorView is the read surface an evaluation needs from an actor.
type ActorView interface {
	ActorID() string
	HasInfo(name string) bool
	Field(name string) (float64, bool)
}

// InfoWriter is implemented by actors that accept %+info -info% effects.
type InfoWriter interface {
	GiveInfo(name string)
	ClearInfo(name string)
}

// Evaluator picks branches. Predicate terms (=name / !name) are resolved
// through the PredicateSet; an evaluator with a nil set rejects them at
// evaluation time, which is a configuration error.
type Evaluator struct {
	preds *PredicateSet
}

func NewEvaluator(preds *PredicateSet) *Evaluator {
	return &Evaluator{preds: preds}
}

// Evaluate returns the section of the first branch whose guard holds,
// applying the branch's effects. ok is false when no branch matched.
func (e *Evaluator) Evaluate(actor, speaker ActorView, cl Condlist) (section string, ok bool) {
	br, ok := e.Pick(actor, speaker, cl)
	if !ok {
		return "", false
	}
	if w, can := actor.(InfoWriter); can {
		for _, eff := range br.Effects {
			if eff.Set {
				w.GiveInfo(eff.Info)
			} else {
				w.ClearInfo(eff.Info)
			}
		}
	}
	return br.Section, true
}

// Pick returns the first matching branch without applying effects.
func (e *Evaluator) Pick(actor, speaker ActorView, cl Condlist) (Branch, bool) {
	for _, br := range cl {
		if e.holds(actor, speaker, br.Conds) {
			return br, true
		}
	}
	return Branch{}, false
}

func (e *Evaluator) holds(actor, speaker ActorView, conds []Cond) bool {
	for _, c := range conds {
		if !e.condHolds(actor, speaker, c) {
			return false
		}
	}
	return true
}

func (e *Evaluator) condHolds(actor, speaker ActorView, c Cond) bool {
	switch c.Kind {
	case CondInfoSet:
		return actor.HasInfo(c.Name)
	case CondInfoUnset:
		return !actor.HasInfo(c.Name)
	case CondCmp:
		v, ok := actor.Field(c.Name)
		if !ok {
			return false
		}
		switch c.Op {
		case OpLT:
			return v < c.Value
		case OpLE:
			return v <= c.Value
		case OpGT:
			return v > c.Value
		case OpGE:
			return v >= c.Value
		case OpEQ:
			return v == c.Value
		case OpNE:
			return v != c.Value
		}
		return false
	case CondPred, CondNotPred:
		if e.preds == nil {
			panic(fmt.Sprintf("condlist: predicate %q used but no predicate set loaded", c.Name))
		}
		v, err := e.preds.Call(c.Name, actor, speaker, c.Args)
		if err != nil {
			panic(fmt.Sprintf("condlist: predicate %q: %v", c.Name, err))
		}
		if c.Kind == CondNotPred {
			return !v
		}
		return v
	}
	return false
}
