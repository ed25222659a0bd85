package slug

import "strings"

const (
	// PathSeparator separates levels in both raw and link paths.
	PathSeparator = "/"
	// DisplaySeparator joins levels of a display path.
	DisplaySeparator = " / "
)

// Path is a hierarchical name split into its URL key and its readable label.
type Path struct {
	// Link is the slug-joined key, e.g. "electronics/phones".
	Link string
	// Display is the trimmed label, e.g. "Electronics / Phones".
	Display string
}

// Decompose splits a raw "/"-delimited name into link and display paths.
// Segments are trimmed and empty segments are dropped, so Link and Display
// always have the same number of levels.
func Decompose(raw string) Path {
	var links, names []string
	for _, segment := range strings.Split(raw, PathSeparator) {
		name := strings.TrimSpace(segment)
		if name == "" {
			continue
		}
		names = append(names, name)
		links = append(links, Slug(name))
	}
	return Path{
		Link:    strings.Join(links, PathSeparator),
		Display: strings.Join(names, DisplaySeparator),
	}
}

// Segments returns the display labels of a display or raw path.
func Segments(display string) []string {
	parts := strings.Split(display, PathSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
