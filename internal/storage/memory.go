package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nlstn/go-catalog/internal/query"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps products in process memory. Filters are evaluated with
// query.Match, which mirrors the SQL the GORM store generates.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Select implements Store.
func (s *MemoryStore) Select(ctx context.Context, q SelectQuery) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFields(q.Fields); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]Record, 0, len(s.rows))
	for i := range s.rows {
		if query.Matches(q.Filter, &s.rows[i]) {
			matched = append(matched, s.rows[i])
		}
	}
	s.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, item := range q.OrderBy {
				a, _ := matched[i].Value(item.Property)
				b, _ := matched[j].Value(item.Property)
				c := compareValues(a, b)
				if c == 0 {
					continue
				}
				if item.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Skip > 0 {
		if q.Skip >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[q.Skip:]
		}
	}
	if q.Take > 0 && q.Take < len(matched) {
		matched = matched[:q.Take]
	}

	out := make([]Record, len(matched))
	for i := range matched {
		out[i] = matched[i].project(q.Fields)
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context, filter *query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.rows {
		if query.Matches(filter, &s.rows[i]) {
			n++
		}
	}
	return n, nil
}

// GroupCount implements Store.
func (s *MemoryStore) GroupCount(ctx context.Context, groupFields []string, filter *query.Filter) ([]Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(groupFields) == 0 {
		return nil, errors.New("storage: group count needs at least one field")
	}
	if err := validateFields(groupFields); err != nil {
		return nil, err
	}

	s.mu.RLock()
	index := make(map[string]int)
	var groups []Group
	for i := range s.rows {
		rec := &s.rows[i]
		if !query.Matches(filter, rec) {
			continue
		}
		keys := make([]string, len(groupFields))
		for k, f := range groupFields {
			v, _ := rec.Value(f)
			keys[k] = fmt.Sprint(v)
		}
		id := strings.Join(keys, "\x00")
		if pos, ok := index[id]; ok {
			groups[pos].Count++
			continue
		}
		index[id] = len(groups)
		groups = append(groups, Group{Keys: keys, Count: 1})
	}
	s.mu.RUnlock()

	sort.SliceStable(groups, func(i, j int) bool {
		for k := range groupFields {
			if c := strings.Compare(groups[i].Keys[k], groups[j].Keys[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return groups, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].ID == rec.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.ID)
		}
	}
	s.rows = append(s.rows, *rec)
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, values map[string]interface{}, filter *query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}

	// validate every assignment on a scratch record first so a bad value
	// leaves the table untouched
	var scratch Record
	for f, v := range values {
		if err := scratch.set(f, v); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for i := range s.rows {
		if !query.Matches(filter, &s.rows[i]) {
			continue
		}
		for f, v := range values {
			_ = s.rows[i].set(f, v) //nolint:errcheck // validated above
		}
		n++
	}
	return n, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, filter *query.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	var n int64
	for i := range s.rows {
		if query.Matches(filter, &s.rows[i]) {
			n++
			continue
		}
		kept = append(kept, s.rows[i])
	}
	// clear the tail so deleted records can be collected
	for i := len(kept); i < len(s.rows); i++ {
		s.rows[i] = Record{}
	}
	s.rows = kept
	return n, nil
}

func compareValues(a, b interface{}) int {
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		return strings.Compare(x, y)
	case bool:
		y, _ := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	case decimal.Decimal:
		y, _ := b.(decimal.Decimal)
		return x.Cmp(y)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
