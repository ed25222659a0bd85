package index

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Snapshot is one complete, immutable build of the navigation index.
// Callers must not modify the slices.
type Snapshot struct {
	Categories    []CategoryNode     `json:"categories"`
	Manufacturers []ManufacturerNode `json:"manufacturers"`
	BuiltAt       time.Time          `json:"built_at"`
	// ETag fingerprints the contents, not the build time, so rebuilding an
	// unchanged catalog yields the same tag.
	ETag string `json:"etag"`

	byLink map[string]int
}

// NewSnapshot assembles a snapshot from built categories and manufacturers.
func NewSnapshot(categories []CategoryNode, manufacturers []ManufacturerNode, builtAt time.Time) *Snapshot {
	s := &Snapshot{
		Categories:    categories,
		Manufacturers: manufacturers,
		BuiltAt:       builtAt,
		byLink:        make(map[string]int, len(categories)),
	}
	for i, c := range categories {
		s.byLink[c.Link] = i
	}
	s.ETag = fingerprint(categories, manufacturers)
	return s
}

// Category returns the node for link.
func (s *Snapshot) Category(link string) (CategoryNode, bool) {
	pos, ok := s.byLink[link]
	if !ok {
		return CategoryNode{}, false
	}
	return s.Categories[pos], true
}

// HasCategory reports whether link is in the index.
func (s *Snapshot) HasCategory(link string) bool {
	_, ok := s.byLink[link]
	return ok
}

// Children returns the direct children of the node at parent, in index order.
// An empty parent returns the roots.
func (s *Snapshot) Children(parent string) []CategoryNode {
	var out []CategoryNode
	for _, c := range s.Categories {
		if c.Parent == parent {
			out = append(out, c)
		}
	}
	return out
}

func fingerprint(categories []CategoryNode, manufacturers []ManufacturerNode) string {
	d := xxhash.New()
	var buf []byte
	for _, c := range categories {
		buf = append(buf[:0], 'c')
		buf = append(buf, c.Link...)
		buf = append(buf, 0)
		buf = append(buf, c.Name...)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, c.Count, 10)
		buf = append(buf, '\n')
		_, _ = d.Write(buf) //nolint:errcheck // hash writes never fail
	}
	for _, m := range manufacturers {
		buf = append(buf[:0], 'm')
		buf = append(buf, m.Link...)
		buf = append(buf, 0)
		buf = append(buf, m.Name...)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, m.Count, 10)
		buf = append(buf, '\n')
		_, _ = d.Write(buf) //nolint:errcheck // hash writes never fail
	}
	return `W/"` + strconv.FormatUint(d.Sum64(), 16) + `"`
}

var empty = NewSnapshot(nil, nil, time.Time{})

// Published holds the current snapshot. Stores replace it wholesale, so
// readers see either the previous or the next snapshot, never a mix.
type Published struct {
	current atomic.Pointer[Snapshot]
}

// Load returns the current snapshot, or an empty one before the first Store.
func (p *Published) Load() *Snapshot {
	if s := p.current.Load(); s != nil {
		return s
	}
	return empty
}

// Store publishes s, replacing the previous snapshot.
func (p *Published) Store(s *Snapshot) {
	p.current.Store(s)
}
