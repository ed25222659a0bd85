package query

import "errors"

var (
	errEmptyExpression      = errors.New("empty filter expression")
	errUnsupportedNodeType  = errors.New("unsupported filter node type")
	errUnsupportedOperator  = errors.New("unsupported filter operator")
	errUnsupportedLogical   = errors.New("unsupported logical operator")
	errInvalidSQLIdentifier = errors.New("invalid SQL identifier in column name")
)
