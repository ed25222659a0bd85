package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nlstn/go-catalog/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps products in a relational database through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB returns the underlying handle.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the products table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) table(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Record{})
}

// Select implements Store.
func (s *GormStore) Select(ctx context.Context, q SelectQuery) ([]Record, error) {
	if err := validateFields(q.Fields); err != nil {
		return nil, err
	}

	tx := query.Apply(s.table(ctx), q.Filter)
	if len(q.Fields) > 0 {
		tx = tx.Select(q.Fields)
	}
	tx = query.ApplyOrderBy(tx, q.OrderBy)
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Take > 0 {
		tx = tx.Limit(q.Take)
	}

	var records []Record
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context, filter *query.Filter) (int64, error) {
	var count int64
	err := query.Apply(s.table(ctx), filter).Count(&count).Error
	return count, err
}

// GroupCount implements Store.
func (s *GormStore) GroupCount(ctx context.Context, groupFields []string, filter *query.Filter) ([]Group, error) {
	if len(groupFields) == 0 {
		return nil, errors.New("storage: group count needs at least one field")
	}
	if err := validateFields(groupFields); err != nil {
		return nil, err
	}

	quoted := make([]string, len(groupFields))
	for i, f := range groupFields {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	columns := strings.Join(quoted, ", ")

	tx := query.Apply(s.table(ctx), filter).
		Select(columns + `, COUNT("id") AS group_count`).
		Group(columns)
	for _, f := range groupFields {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: f}})
	}

	rows, err := tx.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		keys := make([]sql.NullString, len(groupFields))
		dest := make([]interface{}, 0, len(groupFields)+1)
		for i := range keys {
			dest = append(dest, &keys[i])
		}
		var count int64
		dest = append(dest, &count)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		g := Group{Keys: make([]string, len(keys)), Count: count}
		for i, k := range keys {
			g.Keys[i] = k.String
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Insert implements Store.
func (s *GormStore) Insert(ctx context.Context, rec *Record) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.ID)
	}
	return err
}

// Update implements Store.
func (s *GormStore) Update(ctx context.Context, values map[string]interface{}, filter *query.Filter) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	if err := validateFields(fields); err != nil {
		return 0, err
	}

	tx := s.table(ctx)
	if filter.Empty() {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := query.Apply(tx, filter).Updates(values)
	return res.RowsAffected, res.Error
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, filter *query.Filter) (int64, error) {
	tx := s.db.WithContext(ctx)
	if filter.Empty() {
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	res := query.Apply(tx, filter).Delete(&Record{})
	return res.RowsAffected, res.Error
}
