package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"classic-hunt/models"
)

// ErrNoComparison signals that only one snapshot exists, so no diff is
// possible. This is a distinct outcome from "zero new listings" and callers
// must never conflate the two.
var ErrNoComparison = errors.New("only one report exists, no comparison possible")

var urlPattern = regexp.MustCompile(`https?://\S+`)

// lineIdentity extracts the trailing URL-shaped token that identifies a
// listing line.
func lineIdentity(line string) (string, bool) {
	matches := urlPattern.FindAllString(line, -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1], true
}

// DiffReports compares two serialized snapshots and returns the listing
// lines present in later but absent, by identity URL, from earlier. The
// result preserves later's group/price order; a URL duplicated within later
// is reported once, first occurrence winning. Lines without an extractable
// URL are skipped for this operation only.
func DiffReports(earlierName, earlier, laterName, later string) *models.DiffResult {
	known := make(map[string]struct{})
	for _, line := range strings.Split(earlier, "\n") {
		if !IsListingLine(line) {
			continue
		}
		if url, ok := lineIdentity(line); ok {
			known[url] = struct{}{}
		}
	}

	result := &models.DiffResult{Previous: earlierName, Latest: laterName}
	reported := make(map[string]struct{})
	for _, line := range strings.Split(later, "\n") {
		if !IsListingLine(line) {
			continue
		}
		url, ok := lineIdentity(line)
		if !ok {
			continue
		}
		if _, seen := known[url]; seen {
			continue
		}
		if _, dup := reported[url]; dup {
			continue
		}
		reported[url] = struct{}{}
		result.NewLines = append(result.NewLines, line)
	}

	return result
}

// NewListingURLs collects the identity URLs from a rendered diff artifact.
// Used by the email digest to badge new listings.
func NewListingURLs(diffText string) map[string]bool {
	urls := make(map[string]bool)
	for _, line := range strings.Split(diffText, "\n") {
		if !IsListingLine(line) {
			continue
		}
		if url, ok := lineIdentity(line); ok {
			urls[url] = true
		}
	}
	return urls
}

// FormatDiff renders the diff artifact. With new listings:
//
//	New listings: 2
//	Previous: report_2026-08-28T12-00-00.txt
//	Latest: report_2026-08-29T12-00-00.txt
//	========... (80)
//
//	<line>
//	<line>
//
// Without:
//
//	No new listings.
//	Previous: <name>
//	Latest: <name>
func FormatDiff(d *models.DiffResult) string {
	if len(d.NewLines) == 0 {
		return fmt.Sprintf("No new listings.\nPrevious: %s\nLatest: %s\n", d.Previous, d.Latest)
	}
	return fmt.Sprintf("New listings: %d\nPrevious: %s\nLatest: %s\n%s\n\n%s\n",
		len(d.NewLines), d.Previous, d.Latest,
		strings.Repeat("=", 80),
		strings.Join(d.NewLines, "\n"))
}
