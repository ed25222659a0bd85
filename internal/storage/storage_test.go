package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nlstn/go-catalog/internal/query"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			t.Helper()
			// file-based database so every pooled connection sees the same table
			db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
			require.NoError(t, err)
			store := NewGormStore(db)
			require.NoError(t, store.Migrate())
			return store
		},
	}
}

func seed(t *testing.T, s Store) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Record{
		{ID: "p1", Name: "Lamp", CategoryLink: "home", Category: "Home", ManufacturerLink: "acme", Manufacturer: "Acme", Price: decimal.NewFromInt(10), CreatedAt: base},
		{ID: "p2", Name: "Hose", CategoryLink: "home/garden", Category: "Home / Garden", ManufacturerLink: "acme", Manufacturer: "Acme", Price: decimal.NewFromInt(20), CreatedAt: base.Add(time.Hour), Top: true},
		{ID: "p3", Name: "Rake", CategoryLink: "home/garden", Category: "Home / Garden", ManufacturerLink: "tools-inc", Manufacturer: "Tools Inc", Price: decimal.NewFromInt(30), CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p4", Name: "Phone", CategoryLink: "electronics", Category: "Electronics", Price: decimal.NewFromInt(40), CreatedAt: base.Add(3 * time.Hour)},
		{ID: "p5", Name: "Old", CategoryLink: "home", Category: "Home", Price: decimal.NewFromInt(50), CreatedAt: base.Add(4 * time.Hour), Removed: true},
	}
	for i := range rows {
		require.NoError(t, s.Insert(context.Background(), &rows[i]))
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestStoreContract(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("select sorts windows and projects", func(t *testing.T) {
				s := factory(t)
				seed(t, s)

				recs, err := s.Select(ctx, SelectQuery{
					Fields:  []string{FieldID, FieldName},
					Filter:  query.NewFilter().Equals(FieldRemoved, false),
					OrderBy: []query.OrderByItem{{Property: FieldCreatedAt, Descending: true}},
					Skip:    1,
					Take:    2,
				})
				require.NoError(t, err)
				assert.Equal(t, []string{"p3", "p2"}, ids(recs))
				assert.Equal(t, "Rake", recs[0].Name)
				assert.Empty(t, recs[0].CategoryLink, "unselected fields stay zero")
			})

			t.Run("select top first", func(t *testing.T) {
				s := factory(t)
				seed(t, s)

				recs, err := s.Select(ctx, SelectQuery{
					Filter: query.NewFilter().Equals(FieldRemoved, false),
					OrderBy: []query.OrderByItem{
						{Property: FieldTop, Descending: true},
						{Property: FieldCreatedAt, Descending: true},
					},
				})
				require.NoError(t, err)
				assert.Equal(t, []string{"p2", "p4", "p3", "p1"}, ids(recs))
			})

			t.Run("select rejects unknown fields", func(t *testing.T) {
				s := factory(t)
				_, err := s.Select(ctx, SelectQuery{Fields: []string{"password"}})
				assert.ErrorIs(t, err, ErrUnknownField)
			})

			t.Run("count", func(t *testing.T) {
				s := factory(t)
				seed(t, s)

				n, err := s.Count(ctx, query.NewFilter().Equals(FieldRemoved, false).Group(func(g *query.Filter) {
					g.Equals(FieldCategoryLink, "home")
					g.PrefixMatch(FieldCategoryLink, "home/")
				}))
				require.NoError(t, err)
				assert.EqualValues(t, 3, n)
			})

			t.Run("group count", func(t *testing.T) {
				s := factory(t)
				seed(t, s)

				groups, err := s.GroupCount(ctx,
					[]string{FieldCategoryLink, FieldCategory},
					query.NewFilter().Equals(FieldRemoved, false).NotEquals(FieldCategoryLink, ""))
				require.NoError(t, err)
				assert.Equal(t, []Group{
					{Keys: []string{"electronics", "Electronics"}, Count: 1},
					{Keys: []string{"home", "Home"}, Count: 1},
					{Keys: []string{"home/garden", "Home / Garden"}, Count: 2},
				}, groups)
			})

			t.Run("insert duplicate", func(t *testing.T) {
				s := factory(t)
				seed(t, s)
				err := s.Insert(ctx, &Record{ID: "p1", Name: "Again"})
				assert.ErrorIs(t, err, ErrDuplicateKey)
			})

			t.Run("update", func(t *testing.T) {
				s := factory(t)
				seed(t, s)

				n, err := s.Update(ctx, map[string]interface{}{
					FieldCategory:     "Garden",
					FieldCategoryLink: "garden",
				}, query.NewFilter().Equals(FieldCategory, "Home / Garden"))
				require.NoError(t, err)
				assert.EqualValues(t, 2, n)

				c, err := s.Count(ctx, query.NewFilter().Equals(FieldCategoryLink, "garden"))
				require.NoError(t, err)
				assert.EqualValues(t, 2, c)
			})

			t.Run("update rejects unknown field", func(t *testing.T) {
				s := factory(t)
				seed(t, s)
				_, err := s.Update(ctx, map[string]interface{}{"colour": "red"}, query.NewFilter().Equals(FieldID, "p1"))
				assert.ErrorIs(t, err, ErrUnknownField)
			})

			t.Run("delete all", func(t *testing.T) {
				s := factory(t)
				seed(t, s)

				n, err := s.Delete(ctx, query.NewFilter())
				require.NoError(t, err)
				assert.EqualValues(t, 5, n)

				c, err := s.Count(ctx, nil)
				require.NoError(t, err)
				assert.Zero(t, c)
			})
		})
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Select(ctx, SelectQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordValueCoversKnownFields(t *testing.T) {
	var r Record
	for f := range knownFields {
		_, ok := r.Value(f)
		assert.True(t, ok, "field %s has no accessor", f)
	}
	_, ok := r.Value("nope")
	assert.False(t, ok)
}
