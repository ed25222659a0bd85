package query

import (
	"fmt"
	"reflect"
	"strings"
)

// Record exposes field values to the in-memory evaluator.
type Record interface {
	// Value returns the value stored under field and whether the field exists.
	Value(field string) (interface{}, bool)
}

// Matches reports whether rec satisfies every clause of the filter.
// An empty filter matches everything.
func Matches(filter *Filter, rec Record) bool {
	if filter.Empty() {
		return true
	}
	return Match(filter.Expr(), rec)
}

// Match evaluates an expression tree against a record with the same
// semantics the SQL compiler produces.
func Match(node Node, rec Record) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *Predicate:
		return matchPredicate(n, rec)
	case *Logical:
		switch n.Operator {
		case LogicalAnd:
			for _, child := range n.Children {
				if !Match(child, rec) {
					return false
				}
			}
			return true
		case LogicalOr:
			for _, child := range n.Children {
				if Match(child, rec) {
					return true
				}
			}
			return false
		}
	}
	return false
}

func matchPredicate(p *Predicate, rec Record) bool {
	value, ok := rec.Value(p.Field)
	if !ok {
		return false
	}

	switch p.Operator {
	case OpEqual:
		return valuesEqual(value, p.Value)
	case OpNotEqual:
		// SQL never matches NULL with !=
		if p.Value == nil {
			return value != nil
		}
		return value != nil && !valuesEqual(value, p.Value)
	case OpIn:
		for _, candidate := range toInterfaceSlice(p.Value) {
			if valuesEqual(value, candidate) {
				return true
			}
		}
		return false
	case OpStartsWith:
		return strings.HasPrefix(fmt.Sprint(value), fmt.Sprint(p.Value))
	case OpContains:
		return strings.Contains(strings.ToLower(fmt.Sprint(value)), strings.ToLower(fmt.Sprint(p.Value)))
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
