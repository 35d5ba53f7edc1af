package services

import "classic-hunt/models"

// FilterByMaxPrice derives the budget-constrained view of a snapshot: only
// lines whose parsed price is ≤ maxPrice are kept. Lines with an unparsable
// price are excluded — unknown means possibly out of budget, not free to
// include. Groups left empty by the filter are dropped and the aggregate
// count is recomputed; the header is never left stale.
func FilterByMaxPrice(r *models.Report, maxPrice int) *models.Report {
	out := &models.Report{
		Title:      r.Title,
		CapturedAt: r.CapturedAt,
	}

	for _, g := range r.Groups {
		var kept []models.ReportLine
		for _, l := range g.Lines {
			price, ok := ParsePrice(l.Price)
			if !ok || price > maxPrice {
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) == 0 {
			continue
		}
		out.Groups = append(out.Groups, models.ReportGroup{Label: g.Label, Lines: kept})
		out.TotalActive += len(kept)
	}

	return out
}
