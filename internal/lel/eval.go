package lel

import "fmt"

// EvaluationError is returned when a comparison refers to a level value
// that was never defined in the Level Catalog.
type EvaluationError struct {
	Attr  string
	Value string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("lel: eval error: undefined level (%s, %s)", e.Attr, e.Value)
}

// AttrSource resolves a context attribute to its (possibly empty,
// possibly absent) set of values. ok is false when the key is absent
// entirely, distinct from present-but-empty.
type AttrSource interface {
	Values(attr string) (values []string, ok bool)
}

// LevelSource resolves an (attribute, value) pair to its integer rank in
// the Level Catalog.
type LevelSource interface {
	Rank(attr, value string) (rank int, ok bool)
}

// Eval evaluates n against attrs and levels. Missing attribute keys
// contribute nothing to a comparison (it evaluates false); unknown
// values within a present attribute's set are likewise ignored for
// ordering comparisons. A comparison operator other than '=' against an
// undefined level value is an EvaluationError, surfaced so the enclosing
// SQL statement can abort.
func Eval(n Node, attrs AttrSource, levels LevelSource) (bool, error) {
	switch v := n.(type) {
	case True:
		return true, nil
	case False:
		return false, nil
	case Not:
		r, err := Eval(v.X, attrs, levels)
		if err != nil {
			return false, err
		}
		return !r, nil
	case And:
		l, err := Eval(v.L, attrs, levels)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return Eval(v.R, attrs, levels)
	case Or:
		l, err := Eval(v.L, attrs, levels)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return Eval(v.R, attrs, levels)
	case Cmp:
		return evalCmp(v, attrs, levels)
	default:
		return false, fmt.Errorf("lel: unknown node type %T", n)
	}
}

func evalCmp(c Cmp, attrs AttrSource, levels LevelSource) (bool, error) {
	values, ok := attrs.Values(c.Attr)

	if c.Op == OpEq {
		if !ok {
			return false, nil
		}
		for _, v := range values {
			if v == c.Value {
				return true, nil
			}
		}
		return false, nil
	}

	rv, found := levels.Rank(c.Attr, c.Value)
	if !found {
		return false, &EvaluationError{Attr: c.Attr, Value: c.Value}
	}
	if !ok {
		return false, nil
	}

	for _, w := range values {
		rw, known := levels.Rank(c.Attr, w)
		if !known {
			continue
		}
		if compareRanks(rw, c.Op, rv) {
			return true, nil
		}
	}
	return false, nil
}

func compareRanks(rw int, op Op, rv int) bool {
	switch op {
	case OpGE:
		return rw >= rv
	case OpLE:
		return rw <= rv
	case OpGT:
		return rw > rv
	case OpLT:
		return rw < rv
	default:
		return false
	}
}
