// Package query builds backend-neutral filter expressions and compiles them
// to GORM queries or evaluates them against in-memory records.
package query

import (
	"reflect"

	"github.com/nlstn/go-catalog/internal/slug"
)

// FilterOperator represents a predicate comparison operator
type FilterOperator string

const (
	OpEqual      FilterOperator = "eq"
	OpNotEqual   FilterOperator = "ne"
	OpStartsWith FilterOperator = "startswith"
	OpContains   FilterOperator = "contains"
	OpIn         FilterOperator = "in"
)

// LogicalOperator represents logical operators for combining filters
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// Node is a node of a filter expression tree.
type Node interface {
	filterNode()
}

// Predicate is a leaf comparing a single field against a value.
type Predicate struct {
	Field    string
	Operator FilterOperator
	Value    interface{}
}

func (*Predicate) filterNode() {}

// Logical combines its children with AND or OR.
type Logical struct {
	Operator LogicalOperator
	Children []Node
}

func (*Logical) filterNode() {}

// And returns a conjunction of the given nodes.
func And(children ...Node) *Logical {
	return &Logical{Operator: LogicalAnd, Children: children}
}

// Or returns a disjunction of the given nodes.
func Or(children ...Node) *Logical {
	return &Logical{Operator: LogicalOr, Children: children}
}

// Filter accumulates predicate clauses. Clauses added at the top level are
// combined with AND; clauses added inside Group are combined with OR.
//
// Nodes are never mutated once appended, so a Filter can serve as a template:
// Clone it and extend the copy without affecting the original.
type Filter struct {
	scope   LogicalOperator
	clauses []Node
}

// NewFilter returns an empty filter whose clauses combine conjunctively.
func NewFilter() *Filter {
	return &Filter{scope: LogicalAnd}
}

// Equals adds field == value.
func (f *Filter) Equals(field string, value interface{}) *Filter {
	return f.add(&Predicate{Field: field, Operator: OpEqual, Value: value})
}

// NotEquals adds field != value.
func (f *Filter) NotEquals(field string, value interface{}) *Filter {
	return f.add(&Predicate{Field: field, Operator: OpNotEqual, Value: value})
}

// PrefixMatch matches values whose first len(prefix) characters equal prefix.
func (f *Filter) PrefixMatch(field, prefix string) *Filter {
	return f.add(&Predicate{Field: field, Operator: OpStartsWith, Value: prefix})
}

// ContainsToken adds a substring match of the search-normalized text.
// An empty token after normalization adds nothing.
func (f *Filter) ContainsToken(field, text string) *Filter {
	token := slug.Search(text)
	if token == "" {
		return f
	}
	return f.add(&Predicate{Field: field, Operator: OpContains, Value: token})
}

// In adds a set-membership test. values must be a slice; an empty slice
// matches nothing.
func (f *Filter) In(field string, values interface{}) *Filter {
	return f.add(&Predicate{Field: field, Operator: OpIn, Value: toInterfaceSlice(values)})
}

// Group opens a nested OR scope. Clauses added to g inside fn are combined
// with OR, and the group as a whole joins the enclosing scope.
func (f *Filter) Group(fn func(g *Filter)) *Filter {
	g := &Filter{scope: LogicalOr}
	fn(g)
	if len(g.clauses) == 0 {
		return f
	}
	if len(g.clauses) == 1 {
		return f.add(g.clauses[0])
	}
	return f.add(Or(g.clauses...))
}

// Clone returns an independent copy of the filter.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return NewFilter()
	}
	clauses := make([]Node, len(f.clauses))
	copy(clauses, f.clauses)
	return &Filter{scope: f.scope, clauses: clauses}
}

// Empty reports whether no clause has been added.
func (f *Filter) Empty() bool {
	return f == nil || len(f.clauses) == 0
}

// Expr returns the expression tree for the filter, or nil when it is empty.
func (f *Filter) Expr() Node {
	if f.Empty() {
		return nil
	}
	if len(f.clauses) == 1 {
		return f.clauses[0]
	}
	children := make([]Node, len(f.clauses))
	copy(children, f.clauses)
	return &Logical{Operator: f.scope, Children: children}
}

func (f *Filter) add(n Node) *Filter {
	if f.scope == "" {
		f.scope = LogicalAnd
	}
	f.clauses = append(f.clauses, n)
	return f
}

// toInterfaceSlice copies any slice into a fresh []interface{}.
func toInterfaceSlice(values interface{}) []interface{} {
	switch v := values.(type) {
	case nil:
		return []interface{}{}
	case []interface{}:
		out := make([]interface{}, len(v))
		copy(out, v)
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}

	rv := reflect.ValueOf(values)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{values}
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
