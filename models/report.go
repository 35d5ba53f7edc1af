package models

import "time"

// ReportTimeLayout is the human-readable capture timestamp format used in
// report headers, e.g. "29. 8. 2026 14:05:03".
const ReportTimeLayout = "2. 1. 2006 15:04:05"

// Report is one point-in-time snapshot of all active listings across all
// tracked models: ordered groups of price-sorted lines. Immutable once
// built; every textual consumer (report store, diff, filter, email, LLM
// prompt input) shares the one serializer/parser pair in services.
type Report struct {
	Title       string
	CapturedAt  time.Time
	TotalActive int
	Groups      []ReportGroup
}

// ReportGroup is all listings for one model label, sorted by ascending
// parsed price with unparsable prices last.
type ReportGroup struct {
	Label string
	Lines []ReportLine
}

// ReportLine is one serialized listing: ten ` | `-separated display fields
// with the URL always last.
type ReportLine struct {
	Price      string
	Title      string
	Year       string
	Kilometers string
	Horsepower string
	Fuel       string
	Gearbox    string
	Color      string
	Phone      string
	URL        string
}

// DiffResult is the set of listing lines present in a later report but
// absent, by identity URL, from an earlier one. Ephemeral and derived:
// only its rendered artifact is persisted.
type DiffResult struct {
	Previous string // earlier report file name
	Latest   string // later report file name
	NewLines []string
}
