package models

import (
	"strings"
	"time"
	"unicode"
)

// Unknown is the explicit marker stored for display fields the scraper could
// not resolve. Absence of data is a valid state, not a fault.
const Unknown = "N/A"

// Status is the lifecycle state of a listing record.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// RawListing holds one unprocessed row extracted from a search results page.
// Listings without a Link cannot be reconciled against history and are
// dropped during reconciliation.
type RawListing struct {
	Link       string
	Title      string
	Price      string
	Year       string
	Kilometers string
	Horsepower string
	Fuel       string
	Gearbox    string
	Color      string
	Phone      string
	ImageURL   string
	ScrapedAt  time.Time
}

// ListingRecord is one observed vehicle ad plus its lifecycle metadata.
// Link is the sole identity: two records with the same Link are the same
// listing regardless of drift in any other field. FirstSeen is set once and
// never changes; LastUpdate is refreshed every time the record is observed
// active.
type ListingRecord struct {
	Link       string    `json:"link"`
	Title      string    `json:"title"`
	Price      string    `json:"price"`
	Year       string    `json:"year"`
	Kilometers string    `json:"kilometers"`
	Horsepower string    `json:"horsepower"`
	Fuel       string    `json:"fuel"`
	Gearbox    string    `json:"gearbox"`
	Color      string    `json:"color"`
	Phone      string    `json:"phone"`
	ImageURL   string    `json:"imageUrl"`
	Status     Status    `json:"status"`
	FirstSeen  time.Time `json:"firstSeen"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// RecordSet is every known record for one (brand, model) pair, in persisted
// order: the latest scrape batch first, carried-over history after it.
type RecordSet []*ListingRecord

// ByLink indexes the set by its identity key. When the set holds duplicate
// links (it should not), the first occurrence wins.
func (s RecordSet) ByLink() map[string]*ListingRecord {
	idx := make(map[string]*ListingRecord, len(s))
	for _, r := range s {
		if _, dup := idx[r.Link]; !dup {
			idx[r.Link] = r
		}
	}
	return idx
}

// Active returns the subset with StatusActive, preserving order.
func (s RecordSet) Active() RecordSet {
	out := make(RecordSet, 0, len(s))
	for _, r := range s {
		if r.Status == StatusActive {
			out = append(out, r)
		}
	}
	return out
}

// ModelKey identifies one tracked vehicle search.
type ModelKey struct {
	Brand string
	Model string
}

// Label is the human display form used for report grouping: title-cased
// brand plus upper-cased model code, e.g. {"audi", "80"} → "Audi 80".
func (k ModelKey) Label() string {
	return titleCase(k.Brand) + " " + strings.ToUpper(k.Model)
}

// FileName is the per-model persistence file name, e.g. "audi_80.json".
func (k ModelKey) FileName() string {
	return strings.ToLower(k.Brand) + "_" + strings.ToLower(k.Model) + ".json"
}

func (k ModelKey) String() string {
	return k.Brand + " " + k.Model
}

func titleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
