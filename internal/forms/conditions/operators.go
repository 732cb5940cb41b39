package conditions

import (
	"strings"
)

// Operator compares a field's value with an expected value. Unary operators
// ignore expected.
type Operator struct {
	Name  string
	Unary bool
	Apply func(actual, expected any) bool
}

var operators = map[string]Operator{}

var aliases = map[string]string{
	"==": "equals",
	"=":  "equals",
	"!=": "not_equals",
	"<>": "not_equals",
	">":  "greater_than",
	"<":  "less_than",
	">=": "greater_or_equal",
	"<=": "less_or_equal",
}

func register(op Operator) {
	operators[op.Name] = op
}

func init() {
	register(Operator{Name: "equals", Apply: equalValues})
	register(Operator{Name: "not_equals", Apply: func(a, b any) bool { return !equalValues(a, b) }})
	register(Operator{Name: "contains", Apply: containsValue})
	register(Operator{Name: "not_contains", Apply: func(a, b any) bool { return !containsValue(a, b) }})
	register(Operator{Name: "greater_than", Apply: ordered(func(c int) bool { return c > 0 })})
	register(Operator{Name: "less_than", Apply: ordered(func(c int) bool { return c < 0 })})
	register(Operator{Name: "greater_or_equal", Apply: ordered(func(c int) bool { return c >= 0 })})
	register(Operator{Name: "less_or_equal", Apply: ordered(func(c int) bool { return c <= 0 })})
	register(Operator{Name: "is_empty", Unary: true, Apply: func(a, _ any) bool { return IsEmptyValue(a) }})
	register(Operator{Name: "is_not_empty", Unary: true, Apply: func(a, _ any) bool { return !IsEmptyValue(a) }})
	register(Operator{Name: "starts_with", Apply: textPredicate(strings.HasPrefix)})
	register(Operator{Name: "ends_with", Apply: textPredicate(strings.HasSuffix)})
	register(Operator{Name: "in", Apply: inValues})
	register(Operator{Name: "not_in", Apply: func(a, b any) bool { return !inValues(a, b) }})
}

// LookupOperator resolves a name or symbolic alias, case-insensitively.
func LookupOperator(name string) (Operator, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[n]; ok {
		n = alias
	}
	op, ok := operators[n]
	return op, ok
}

func equalScalars(a, b any) bool {
	if x, ok := NumberOf(a); ok {
		if y, ok := NumberOf(b); ok {
			return x == y
		}
	}
	if x, ok := DateOf(a); ok {
		if y, ok := DateOf(b); ok {
			return x.Equal(y)
		}
	}
	return TextOf(a) == TextOf(b)
}

// equalValues treats lists as sets; a scalar equals a one-element list holding it.
func equalValues(a, b any) bool {
	la, aList := ListOf(a)
	lb, bList := ListOf(b)
	if !aList && !bList {
		return equalScalars(a, b)
	}
	if !aList {
		la = []any{a}
	}
	if !bList {
		lb = []any{b}
	}
	return subset(la, lb) && subset(lb, la)
}

func subset(xs, ys []any) bool {
	for _, x := range xs {
		if !member(x, ys) {
			return false
		}
	}
	return true
}

func member(x any, ys []any) bool {
	for _, y := range ys {
		if equalScalars(x, y) {
			return true
		}
	}
	return false
}

func containsValue(a, b any) bool {
	if list, ok := ListOf(a); ok {
		if want, ok := ListOf(b); ok {
			return subset(want, list)
		}
		return member(b, list)
	}
	return strings.Contains(strings.ToLower(TextOf(a)), strings.ToLower(TextOf(b)))
}

func inValues(a, b any) bool {
	pool, ok := ListOf(b)
	if !ok {
		pool = []any{b}
	}
	if list, ok := ListOf(a); ok {
		return len(list) > 0 && subset(list, pool)
	}
	return member(a, pool)
}

func textPredicate(fn func(s, affix string) bool) func(a, b any) bool {
	return func(a, b any) bool {
		return fn(strings.ToLower(TextOf(a)), strings.ToLower(TextOf(b)))
	}
}

// compare orders numbers first, then dates. ok=false when neither applies.
func compare(a, b any) (int, bool) {
	if x, ok := NumberOf(a); ok {
		if y, ok := NumberOf(b); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if x, ok := DateOf(a); ok {
		if y, ok := DateOf(b); ok {
			return x.Compare(y), true
		}
	}
	return 0, false
}

func ordered(pred func(int) bool) func(a, b any) bool {
	return func(a, b any) bool {
		c, ok := compare(a, b)
		return ok && pred(c)
	}
}
