package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"classic-hunt/models"
)

const (
	// ReportTitle heads every snapshot; parsers treat everything before the
	// first "=" rule as metadata.
	ReportTitle = "Classic Hunt Report"

	fieldSep        = " | "
	headerRuleWidth = 120
)

// ParsePrice extracts the numeric value from a raw display price by
// stripping every non-digit character, e.g. "24.000 €" → 24000. The second
// return value is false when no digits remain.
func ParsePrice(raw string) (int, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		// Digit run too long for int; treat as unparsable.
		return 0, false
	}
	return n, true
}

// priceSortKey maps a raw price to its ordering value; unparsable prices
// sort last.
func priceSortKey(raw string) int {
	n, ok := ParsePrice(raw)
	if !ok {
		return math.MaxInt
	}
	return n
}

// BuildReport aggregates the active records of every enabled model into one
// ordered snapshot. Records of models missing from enabled are excluded even
// when their history still exists. Groups are ordered lexicographically by
// label; within a group, lines are ordered by ascending parsed price with
// unparsable prices last.
func BuildReport(sets map[models.ModelKey]models.RecordSet, enabled map[models.ModelKey]bool, capturedAt time.Time) *models.Report {
	byLabel := make(map[string][]models.ReportLine)

	for key, set := range sets {
		if !enabled[key] {
			continue
		}
		label := key.Label()
		for _, rec := range set.Active() {
			byLabel[label] = append(byLabel[label], lineFromRecord(rec))
		}
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	report := &models.Report{
		Title:      ReportTitle,
		CapturedAt: capturedAt,
	}
	for _, label := range labels {
		lines := byLabel[label]
		sort.SliceStable(lines, func(i, j int) bool {
			return priceSortKey(lines[i].Price) < priceSortKey(lines[j].Price)
		})
		report.Groups = append(report.Groups, models.ReportGroup{Label: label, Lines: lines})
		report.TotalActive += len(lines)
	}

	return report
}

func lineFromRecord(r *models.ListingRecord) models.ReportLine {
	return models.ReportLine{
		Price:      r.Price,
		Title:      r.Title,
		Year:       r.Year,
		Kilometers: r.Kilometers,
		Horsepower: r.Horsepower,
		Fuel:       r.Fuel,
		Gearbox:    r.Gearbox,
		Color:      r.Color,
		Phone:      r.Phone,
		URL:        r.Link,
	}
}

// FormatReport renders the snapshot in the flat line-oriented interchange
// format, bit-exact:
//
//	Classic Hunt Report - 29. 8. 2026 14:05:03
//	Active listings: 42
//	========... (120)
//
//	--- Audi 80 ---
//	9.500 € | Audi 80 1.8S | 1990 | 160.000 km | 90 HP | bencin | ročni | N/A | 041 123 456 | https://...
func FormatReport(r *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", r.Title, r.CapturedAt.Format(models.ReportTimeLayout))
	fmt.Fprintf(&b, "Active listings: %d\n", r.TotalActive)
	b.WriteString(strings.Repeat("=", headerRuleWidth))
	b.WriteString("\n\n")

	for _, g := range r.Groups {
		fmt.Fprintf(&b, "--- %s ---\n", g.Label)
		for _, l := range g.Lines {
			b.WriteString(FormatLine(l))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FormatLine renders one listing line: ten ` | `-separated fields, URL last.
func FormatLine(l models.ReportLine) string {
	return strings.Join([]string{
		l.Price, l.Title, l.Year, l.Kilometers, l.Horsepower,
		l.Fuel, l.Gearbox, l.Color, l.Phone, l.URL,
	}, fieldSep)
}

// IsListingLine reports whether a report line is a serialized listing rather
// than metadata or a group header.
func IsListingLine(line string) bool {
	return strings.Contains(line, fieldSep) && !strings.HasPrefix(line, "===")
}

// reportScan is the accumulator threaded through ParseReport; grouping is
// explicit state here, never ambient.
type reportScan struct {
	report  *models.Report
	group   *models.ReportGroup
	skipped int
}

func (s *reportScan) startGroup(label string) {
	s.flush()
	s.group = &models.ReportGroup{Label: label}
}

func (s *reportScan) flush() {
	if s.group != nil {
		s.report.Groups = append(s.report.Groups, *s.group)
		s.group = nil
	}
}

// ParseReport re-parses serialized report text into its structured form.
// Lines before the first "=" rule or group header are metadata. A malformed
// listing line (wrong field count) is skipped without aborting the rest of
// the input; skipped counts toward the second return value. Parsers accept
// either 8 fields (no color/phone) or ≥10 fields, with the URL always last.
func ParseReport(text string) (*models.Report, int) {
	scan := &reportScan{report: &models.Report{}}

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "--- ") && strings.HasSuffix(line, " ---"):
			scan.startGroup(strings.TrimSuffix(strings.TrimPrefix(line, "--- "), " ---"))

		case strings.HasPrefix(line, "==="):
			scan.flush()

		case strings.HasPrefix(line, "Active listings: "):
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "Active listings: ")); err == nil {
				scan.report.TotalActive = n
			}

		case scan.group == nil && scan.report.Title == "" && strings.Contains(line, " - "):
			title, stamp, _ := strings.Cut(line, " - ")
			scan.report.Title = title
			if t, err := time.Parse(models.ReportTimeLayout, stamp); err == nil {
				scan.report.CapturedAt = t
			}

		case scan.group != nil && strings.TrimSpace(line) != "":
			l, ok := parseLine(line)
			if !ok {
				scan.skipped++
				continue
			}
			scan.group.Lines = append(scan.group.Lines, l)
		}
	}
	scan.flush()

	return scan.report, scan.skipped
}

// parseLine splits one listing line. Eight fields means the legacy layout
// without color/phone columns; anything between 8 and 10 is malformed.
func parseLine(line string) (models.ReportLine, bool) {
	parts := strings.Split(line, fieldSep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) >= 10:
		return models.ReportLine{
			Price:      parts[0],
			Title:      parts[1],
			Year:       parts[2],
			Kilometers: parts[3],
			Horsepower: parts[4],
			Fuel:       parts[5],
			Gearbox:    parts[6],
			Color:      parts[7],
			Phone:      parts[8],
			URL:        parts[len(parts)-1],
		}, true
	case len(parts) == 8:
		return models.ReportLine{
			Price:      parts[0],
			Title:      parts[1],
			Year:       parts[2],
			Kilometers: parts[3],
			Horsepower: parts[4],
			Fuel:       parts[5],
			Gearbox:    parts[6],
			Color:      models.Unknown,
			Phone:      models.Unknown,
			URL:        parts[7],
		}, true
	default:
		return models.ReportLine{}, false
	}
}
