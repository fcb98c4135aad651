package catalog

import (
	"errors"

	"github.com/diaglab/diaglab/internal/platform/search"
)

var (
	ErrNotFound  = errors.New("not found in catalog")
	ErrMissingID = errors.New("id is required")
	ErrNoFields  = errors.New("no fields to update")
)

// AllCategories is the category facet label that selects every test.
const AllCategories = "All"

// TestMatcher searches name and description and facets on category.
var TestMatcher = search.Matcher[Test]{
	Facet:  func(t Test) string { return t.Category },
	Fields: func(t Test) []string { return []string{t.Name, t.Description} },
}

func FilterTests(tests []Test, query, category string) []Test {
	return TestMatcher.Apply(tests, query, category)
}

// Categories returns AllCategories followed by each distinct category in the
// order it first appears.
func Categories(tests []Test) []string {
	out := []string{AllCategories}
	seen := map[string]bool{}
	for _, t := range tests {
		if t.Category == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}
