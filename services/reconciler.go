package services

import (
	"strings"
	"time"

	"classic-hunt/models"
)

// Reconcile merges a freshly scraped batch for one model against its known
// record set.
//
// Every raw listing with a resolvable link becomes (or refreshes) an active
// record: FirstSeen is preserved from history when present, LastUpdate is
// set to observedAt, and all display fields are overwritten with the fresh
// values — price and title drift between scrapes is expected and tracked,
// not preserved. Raw listings without a link are unidentifiable and are
// dropped. Every existing record whose link is absent from the batch is
// carried forward unchanged except its status is forced to inactive; its
// LastUpdate keeps the last-active value.
//
// The returned set's key space is the union of old and new links, with
// exactly one record per link and nothing ever deleted. Order is the fresh
// batch first, then carried-over records in their stored order.
func Reconcile(existing models.RecordSet, fresh []*models.RawListing, observedAt time.Time) models.RecordSet {
	index := existing.ByLink()

	result := make(models.RecordSet, 0, len(existing)+len(fresh))
	seen := make(map[string]struct{}, len(fresh))

	for _, raw := range fresh {
		link := strings.TrimSpace(raw.Link)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}

		rec := &models.ListingRecord{
			Link:       link,
			Title:      orUnknown(raw.Title),
			Price:      orUnknown(raw.Price),
			Year:       orUnknown(raw.Year),
			Kilometers: orUnknown(raw.Kilometers),
			Horsepower: orUnknown(raw.Horsepower),
			Fuel:       orUnknown(raw.Fuel),
			Gearbox:    orUnknown(raw.Gearbox),
			Color:      orUnknown(raw.Color),
			Phone:      orUnknown(raw.Phone),
			ImageURL:   orUnknown(raw.ImageURL),
			Status:     models.StatusActive,
			FirstSeen:  observedAt,
			LastUpdate: observedAt,
		}
		if prev, ok := index[link]; ok {
			rec.FirstSeen = prev.FirstSeen
		}
		result = append(result, rec)
	}

	for _, prev := range existing {
		if _, have := seen[prev.Link]; have {
			continue
		}
		seen[prev.Link] = struct{}{}

		carried := *prev
		carried.Status = models.StatusInactive
		result = append(result, &carried)
	}

	return result
}

// orUnknown normalises a scraped display field: trimmed, with whitespace
// runs collapsed, and the explicit unknown marker for empty input.
func orUnknown(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return models.Unknown
	}
	return strings.Join(fields, " ")
}
