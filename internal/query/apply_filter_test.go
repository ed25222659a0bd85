package query

import (
	"errors"
	"reflect"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestBuildCondition(t *testing.T) {
	tests := []struct {
		name     string
		dialect  string
		filter   *Filter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "equal",
			dialect:  "sqlite",
			filter:   NewFilter().Equals("removed", false),
			wantSQL:  `"removed" = ?`,
			wantArgs: []interface{}{false},
		},
		{
			name:     "not equal",
			dialect:  "sqlite",
			filter:   NewFilter().NotEquals("id", "abc"),
			wantSQL:  `"id" != ?`,
			wantArgs: []interface{}{"abc"},
		},
		{
			name:     "equal null",
			dialect:  "sqlite",
			filter:   NewFilter().Equals("manufacturer", nil),
			wantSQL:  `"manufacturer" IS NULL`,
			wantArgs: []interface{}{},
		},
		{
			name:     "in",
			dialect:  "sqlite",
			filter:   NewFilter().In("id", []string{"a", "b", "c"}),
			wantSQL:  `"id" IN (?, ?, ?)`,
			wantArgs: []interface{}{"a", "b", "c"},
		},
		{
			name:     "empty in",
			dialect:  "sqlite",
			filter:   NewFilter().In("id", []string{}),
			wantSQL:  "1 = 0",
			wantArgs: []interface{}{},
		},
		{
			name:     "prefix sqlite",
			dialect:  "sqlite",
			filter:   NewFilter().PrefixMatch("category_link", "home/"),
			wantSQL:  `SUBSTR("category_link", 1, ?) = ?`,
			wantArgs: []interface{}{5, "home/"},
		},
		{
			name:     "prefix postgres counts characters",
			dialect:  "postgres",
			filter:   NewFilter().PrefixMatch("category_link", "čaj/"),
			wantSQL:  `SUBSTRING("category_link" FROM 1 FOR ?) = ?`,
			wantArgs: []interface{}{4, "čaj/"},
		},
		{
			name:     "contains",
			dialect:  "sqlite",
			filter:   NewFilter().ContainsToken("search", "Nokia"),
			wantSQL:  `LOWER("search") LIKE ? ESCAPE '\'`,
			wantArgs: []interface{}{"%nokia%"},
		},
		{
			name:    "and with or group",
			dialect: "sqlite",
			filter: NewFilter().Equals("removed", false).Group(func(g *Filter) {
				g.Equals("category_link", "home")
				g.PrefixMatch("category_link", "home/")
			}),
			wantSQL:  `("removed" = ?) AND (("category_link" = ?) OR (SUBSTR("category_link", 1, ?) = ?))`,
			wantArgs: []interface{}{false, "home", 5, "home/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := BuildCondition(tt.dialect, tt.filter.Expr())
			if err != nil {
				t.Fatalf("BuildCondition failed: %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildConditionRejectsInvalidIdentifier(t *testing.T) {
	_, _, err := BuildCondition("sqlite", NewFilter().Equals("id; DROP TABLE x", 1).Expr())
	if !errors.Is(err, errInvalidSQLIdentifier) {
		t.Fatalf("expected errInvalidSQLIdentifier, got %v", err)
	}
}

func TestBuildConditionRejectsUnknownOperator(t *testing.T) {
	_, _, err := BuildCondition("sqlite", &Predicate{Field: "id", Operator: "gt", Value: 1})
	if !errors.Is(err, errUnsupportedOperator) {
		t.Fatalf("expected errUnsupportedOperator, got %v", err)
	}
}

type filterRow struct {
	ID           string `gorm:"primaryKey"`
	CategoryLink string
	Search       string
	Removed      bool
}

func newFilterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&filterRow{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	rows := []filterRow{
		{ID: "1", CategoryLink: "home", Search: "lamp"},
		{ID: "2", CategoryLink: "home/garden", Search: "hose 50%"},
		{ID: "3", CategoryLink: "homeware", Search: "mug"},
		{ID: "4", CategoryLink: "Home/garden", Search: "rake"},
		{ID: "5", CategoryLink: "home/garden", Search: "shovel", Removed: true},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return db
}

func TestApplyAgainstSQLite(t *testing.T) {
	db := newFilterDB(t)

	tests := []struct {
		name    string
		filter  *Filter
		wantIDs []string
	}{
		{
			name: "category subtree excludes siblings sharing a prefix",
			filter: NewFilter().Equals("removed", false).Group(func(g *Filter) {
				g.Equals("category_link", "home")
				g.PrefixMatch("category_link", "home/")
			}),
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "contains token",
			filter:  NewFilter().ContainsToken("search", "HOSE"),
			wantIDs: []string{"2"},
		},
		{
			name:    "underscore is not a wildcard",
			filter:  NewFilter().add(&Predicate{Field: "search", Operator: OpContains, Value: "e_5"}),
			wantIDs: []string{},
		},
		{
			name:    "in and not equal",
			filter:  NewFilter().In("id", []string{"1", "2", "3"}).NotEquals("id", "2"),
			wantIDs: []string{"1", "3"},
		},
		{
			name:    "empty filter returns everything",
			filter:  NewFilter(),
			wantIDs: []string{"1", "2", "3", "4", "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			err := Apply(db.Model(&filterRow{}), tt.filter).Order("id").Pluck("id", &ids).Error
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if len(ids) == 0 && len(tt.wantIDs) == 0 {
				return
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestApplyInvalidFilterFailsStatement(t *testing.T) {
	db := newFilterDB(t)

	var ids []string
	err := Apply(db.Model(&filterRow{}), NewFilter().Equals("bad column", 1)).Pluck("id", &ids).Error
	if !errors.Is(err, errInvalidSQLIdentifier) {
		t.Fatalf("expected statement to fail with errInvalidSQLIdentifier, got %v", err)
	}
}
