package query

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderByItem represents a single sort key
type OrderByItem struct {
	Property   string
	Descending bool
}

// ApplyOrderBy adds ORDER BY clauses in the given precedence.
// Properties that are not plain identifiers are skipped.
func ApplyOrderBy(db *gorm.DB, orderBy []OrderByItem) *gorm.DB {
	for _, item := range orderBy {
		if !isValidIdentifier(item.Property) {
			continue
		}
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Name: item.Property},
			Desc:   item.Descending,
		})
	}
	return db
}
