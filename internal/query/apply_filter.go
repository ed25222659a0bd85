package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// getDatabaseDialect returns the active database dialect name (e.g. "sqlite", "postgres").
func getDatabaseDialect(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	return db.Dialector.Name()
}

// quoteIdent quotes identifiers in a portable way (double quotes work for sqlite and postgres).
func quoteIdent(ident string) string {
	escaped := strings.ReplaceAll(ident, "\"", "\"\"")
	return fmt.Sprintf("\"%s\"", escaped)
}

// Apply adds the filter as a WHERE condition. A filter that cannot be
// compiled is registered as a GORM error so the statement fails instead of
// running unfiltered.
func Apply(db *gorm.DB, filter *Filter) *gorm.DB {
	if filter.Empty() {
		return db
	}

	query, args, err := BuildCondition(getDatabaseDialect(db), filter.Expr())
	if err != nil {
		_ = db.AddError(err) //nolint:errcheck
		return db
	}
	return db.Where(query, args...)
}

// BuildCondition compiles an expression tree to a SQL condition and its arguments.
func BuildCondition(dialect string, node Node) (string, []interface{}, error) {
	switch n := node.(type) {
	case nil:
		return "", nil, errEmptyExpression
	case *Predicate:
		return buildPredicateCondition(dialect, n)
	case *Logical:
		return buildLogicalCondition(dialect, n)
	default:
		return "", nil, fmt.Errorf("%w: %T", errUnsupportedNodeType, node)
	}
}

// buildLogicalCondition builds a logical condition (AND/OR)
func buildLogicalCondition(dialect string, n *Logical) (string, []interface{}, error) {
	var sep string
	switch n.Operator {
	case LogicalAnd:
		sep = " AND "
	case LogicalOr:
		sep = " OR "
	default:
		return "", nil, fmt.Errorf("%w: %q", errUnsupportedLogical, n.Operator)
	}
	if len(n.Children) == 0 {
		return "", nil, errEmptyExpression
	}

	parts := make([]string, 0, len(n.Children))
	var args []interface{}
	for _, child := range n.Children {
		sql, childArgs, err := BuildCondition(dialect, child)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, childArgs...)
	}
	if len(parts) == 1 {
		return parts[0], args, nil
	}
	return "(" + strings.Join(parts, ")"+sep+"(") + ")", args, nil
}

// buildPredicateCondition builds a comparison condition
func buildPredicateCondition(dialect string, p *Predicate) (string, []interface{}, error) {
	if !isValidIdentifier(p.Field) {
		return "", nil, fmt.Errorf("%w: %q", errInvalidSQLIdentifier, p.Field)
	}
	columnName := quoteIdent(p.Field)

	switch p.Operator {
	case OpEqual:
		if p.Value == nil {
			return fmt.Sprintf("%s IS NULL", columnName), []interface{}{}, nil
		}
		return fmt.Sprintf("%s = ?", columnName), []interface{}{p.Value}, nil
	case OpNotEqual:
		if p.Value == nil {
			return fmt.Sprintf("%s IS NOT NULL", columnName), []interface{}{}, nil
		}
		return fmt.Sprintf("%s != ?", columnName), []interface{}{p.Value}, nil
	case OpIn:
		values := toInterfaceSlice(p.Value)
		if len(values) == 0 {
			return "1 = 0", []interface{}{}, nil
		}
		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = "?"
		}
		return fmt.Sprintf("%s IN (%s)", columnName, strings.Join(placeholders, ", ")), values, nil
	case OpStartsWith:
		prefix := fmt.Sprint(p.Value)
		sql, args := buildPrefixSQL(dialect, columnName, prefix)
		return sql, args, nil
	case OpContains:
		sql, args := buildContainsSQL(columnName, p.Value)
		return sql, args, nil
	default:
		return "", nil, fmt.Errorf("%w: %q", errUnsupportedOperator, p.Operator)
	}
}

// buildPrefixSQL compares the first N characters of the column with prefix.
// LIKE is avoided because sqlite compares ASCII case-insensitively.
func buildPrefixSQL(dialect string, columnName string, prefix string) (string, []interface{}) {
	n := utf8.RuneCountInString(prefix)
	if dialect == "postgres" {
		return fmt.Sprintf("SUBSTRING(%s FROM 1 FOR ?) = ?", columnName), []interface{}{n, prefix}
	}
	return fmt.Sprintf("SUBSTR(%s, 1, ?) = ?", columnName), []interface{}{n, prefix}
}

func isValidIdentifier(identifier string) bool {
	if identifier == "" {
		return false
	}
	for i, ch := range identifier {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
		case ch >= '0' && ch <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
