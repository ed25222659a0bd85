package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTopLevelClausesAreConjunctive(t *testing.T) {
	f := NewFilter().
		Equals("removed", false).
		Equals("manufacturer_link", "acme")

	expr, ok := f.Expr().(*Logical)
	require.True(t, ok, "expected a logical node")
	assert.Equal(t, LogicalAnd, expr.Operator)
	assert.Len(t, expr.Children, 2)
}

func TestFilterSingleClauseIsLeaf(t *testing.T) {
	f := NewFilter().Equals("removed", false)

	p, ok := f.Expr().(*Predicate)
	require.True(t, ok)
	assert.Equal(t, &Predicate{Field: "removed", Operator: OpEqual, Value: false}, p)
}

func TestFilterGroupIsDisjunctive(t *testing.T) {
	f := NewFilter().Equals("removed", false)
	f.Group(func(g *Filter) {
		g.Equals("category_link", "electronics")
		g.PrefixMatch("category_link", "electronics/")
	})

	expr := f.Expr().(*Logical)
	require.Len(t, expr.Children, 2)
	group, ok := expr.Children[1].(*Logical)
	require.True(t, ok)
	assert.Equal(t, LogicalOr, group.Operator)
	assert.Len(t, group.Children, 2)
}

func TestFilterEmptyGroupAddsNothing(t *testing.T) {
	f := NewFilter().Group(func(*Filter) {})
	assert.True(t, f.Empty())
	assert.Nil(t, f.Expr())
}

func TestFilterCloneDoesNotShareClauses(t *testing.T) {
	base := NewFilter().Equals("removed", false)

	listing := base.Clone().Equals("id", "a")
	counting := base.Clone().NotEquals("id", "b")

	_, baseIsLeaf := base.Expr().(*Predicate)
	assert.True(t, baseIsLeaf, "base filter must stay untouched")
	assert.Len(t, listing.Expr().(*Logical).Children, 2)
	assert.Len(t, counting.Expr().(*Logical).Children, 2)
	assert.Equal(t, OpEqual, listing.Expr().(*Logical).Children[1].(*Predicate).Operator)
	assert.Equal(t, OpNotEqual, counting.Expr().(*Logical).Children[1].(*Predicate).Operator)
}

func TestFilterContainsTokenNormalizes(t *testing.T) {
	f := NewFilter().ContainsToken("search", "  Café CRÈME ")
	p := f.Expr().(*Predicate)
	assert.Equal(t, "cafe creme", p.Value)

	empty := NewFilter().ContainsToken("search", "!!!")
	assert.True(t, empty.Empty(), "punctuation-only search must not add a clause")
}

func TestFilterInCopiesValues(t *testing.T) {
	ids := []string{"a", "b"}
	f := NewFilter().In("id", ids)
	ids[0] = "z"

	p := f.Expr().(*Predicate)
	assert.Equal(t, []interface{}{"a", "b"}, p.Value)
}

func TestToInterfaceSlice(t *testing.T) {
	assert.Equal(t, []interface{}{1, 2}, toInterfaceSlice([]int{1, 2}))
	assert.Equal(t, []interface{}{"x"}, toInterfaceSlice("x"))
	assert.Empty(t, toInterfaceSlice(nil))
}
