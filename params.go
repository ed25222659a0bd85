package catalog

import (
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// ParseListOptions reads listing options from query parameters. Malformed
// values are clamped rather than rejected: a missing or non-numeric page
// selects the first page and a missing, non-numeric or non-positive max
// falls back to defaultMax. The id parameter takes a comma-separated list.
func ParseListOptions(values url.Values, defaultMax int) ListOptions {
	if defaultMax <= 0 {
		defaultMax = DefaultPageSize
	}

	opts := ListOptions{
		Search:       strings.TrimSpace(values.Get("search")),
		Category:     strings.TrimSpace(values.Get("category")),
		Manufacturer: strings.TrimSpace(values.Get("manufacturer")),
		Skip:         strings.TrimSpace(values.Get("skip")),
		Page:         parseInt(values.Get("page")),
		Max:          parseInt(values.Get("max")),
		Homepage:     cast.ToBool(strings.TrimSpace(values.Get("homepage"))),
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Max < 1 {
		opts.Max = defaultMax
	}

	for _, raw := range values["id"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.IDs = append(opts.IDs, id)
			}
		}
	}
	return opts
}

// parseInt reads a decimal integer, returning 0 when s is not one. Leading
// zeros are dropped so "010" is ten rather than an octal literal.
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if trimmed := strings.TrimLeft(s, "0"); trimmed != s {
		if trimmed == "" {
			return 0
		}
		s = trimmed
	}
	n, err := cast.ToIntE(s)
	if err != nil {
		return 0
	}
	return n
}
