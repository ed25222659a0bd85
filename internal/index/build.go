// Package index materializes the category tree and manufacturer list that
// drive catalog navigation.
package index

import (
	"sort"
	"strings"

	"github.com/nlstn/go-catalog/internal/slug"
)

// CategoryCount is one grouped count as storage reports it: a category
// link path present on active products and how many products carry it.
type CategoryCount struct {
	Link    string
	Display string
	Count   int64
}

// CategoryNode is one level of the category tree.
type CategoryNode struct {
	// Link is the slug path of this node and its unique key.
	Link string `json:"link"`
	// Name is the display path from the root down to this node.
	Name string `json:"name"`
	// Text is this node's own display segment.
	Text string `json:"text"`
	// Parent is the link of the parent node, empty for roots.
	Parent string `json:"parent"`
	// Level is the 0-based depth.
	Level int `json:"level"`
	// Count is the number of products at or below this node.
	Count int64 `json:"count"`
}

// ManufacturerNode is one entry of the flat manufacturer list.
type ManufacturerNode struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Count int64  `json:"count"`
}

// Build turns leaf counts into a leveled tree. Every ancestor of an input
// path gets a node whose count is the sum of the counts at or below it.
// Nodes are ordered by level, then by the order they were first seen.
func Build(counts []CategoryCount) []CategoryNode {
	// arena of nodes in discovery order, addressed through byLink
	var nodes []CategoryNode
	byLink := make(map[string]int)

	for _, c := range counts {
		links := strings.Split(c.Link, slug.PathSeparator)
		names := slug.Segments(c.Display)

		for depth := range links {
			key := strings.Join(links[:depth+1], slug.PathSeparator)
			if pos, ok := byLink[key]; ok {
				nodes[pos].Count += c.Count
				continue
			}

			byLink[key] = len(nodes)
			nodes = append(nodes, CategoryNode{
				Link:   key,
				Name:   displayPrefix(names, links, depth),
				Text:   segment(names, links, depth),
				Parent: strings.Join(links[:depth], slug.PathSeparator),
				Level:  depth,
				Count:  c.Count,
			})
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Level < nodes[j].Level
	})
	return nodes
}

// segment returns the display segment at depth, falling back to the link
// segment when the display path is shorter than the link path.
func segment(names, links []string, depth int) string {
	if depth < len(names) {
		return names[depth]
	}
	return links[depth]
}

func displayPrefix(names, links []string, depth int) string {
	parts := make([]string, depth+1)
	for i := range parts {
		parts[i] = segment(names, links, i)
	}
	return strings.Join(parts, slug.DisplaySeparator)
}

// Manufacturers returns the manufacturer list ordered by display name.
// Entries without a link are dropped and entries sharing a link are merged
// under the first name seen.
func Manufacturers(in []ManufacturerNode) []ManufacturerNode {
	out := make([]ManufacturerNode, 0, len(in))
	seen := make(map[string]int, len(in))
	for _, m := range in {
		if m.Link == "" {
			continue
		}
		if pos, ok := seen[m.Link]; ok {
			out[pos].Count += m.Count
			continue
		}
		seen[m.Link] = len(out)
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
