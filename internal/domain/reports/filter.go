package reports

import "github.com/diaglab/diaglab/internal/platform/search"

// Matcher searches test name, booking id and report id and facets on status.
var Matcher = search.Matcher[Report]{
	Facet:  func(r Report) string { return r.Status },
	Fields: func(r Report) []string { return []string{r.TestName, r.BookingID, r.ReportID} },
}

func Filter(reports []Report, query, status string) []Report {
	return Matcher.Apply(reports, query, status)
}

func CountReady(reports []Report) int {
	n := 0
	for _, r := range reports {
		if r.Status == StatusReady {
			n++
		}
	}
	return n
}

// CountInProgress counts reports that are pending or processing.
func CountInProgress(reports []Report) int {
	n := 0
	for _, r := range reports {
		if r.Status == StatusPending || r.Status == StatusProcessing {
			n++
		}
	}
	return n
}
