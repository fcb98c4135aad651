// Package search narrows in-memory record lists by a categorical facet and a
// free-text query. Filtering is pure: the input slice is never modified and
// the relative order of records is preserved.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// All is the facet value meaning "no facet filter". Matching is
// case-insensitive so both "all" and "All" select everything.
const All = "all"

// IsAll reports whether facet disables facet filtering.
func IsAll(facet string) bool {
	return facet == "" || strings.EqualFold(facet, All)
}

// Matcher describes how to filter records of type T.
type Matcher[T any] struct {
	// Facet returns the categorical field compared for exact equality.
	Facet func(T) string
	// Fields returns the fields searched by the free-text query.
	Fields func(T) []string
}

// Apply returns the records whose facet equals facet (unless IsAll) and
// where at least one field contains query, ignoring case. An empty query
// matches every record.
func (m Matcher[T]) Apply(records []T, query, facet string) []T {
	out := make([]T, 0, len(records))

	folder := cases.Fold()
	q := folder.String(query)
	for _, r := range records {
		if !IsAll(facet) && m.Facet != nil && m.Facet(r) != facet {
			continue
		}
		if q != "" && !m.matchText(folder, r, q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m Matcher[T]) matchText(folder cases.Caser, r T, foldedQuery string) bool {
	if m.Fields == nil {
		return false
	}
	for _, f := range m.Fields(r) {
		if strings.Contains(folder.String(f), foldedQuery) {
			return true
		}
	}
	return false
}

// ContainsFold reports whether substr occurs in s under Unicode case folding.
func ContainsFold(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}
