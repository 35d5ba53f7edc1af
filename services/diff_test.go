package services

import (
	"strings"
	"testing"

	"classic-hunt/models"
)

const diffHeader = "Classic Hunt Report - 29. 8. 2026 14:05:03\nActive listings: 2\n" // abbreviated; diff only reads listing lines

func snapshot(lines ...string) string {
	var b strings.Builder
	b.WriteString(diffHeader)
	b.WriteString(strings.Repeat("=", 120) + "\n\n--- Audi 80 ---\n")
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	return b.String()
}

func listingLine(price, url string) string {
	return price + " | Audi 80 | 1990 | 160.000 km | 90 HP | bencin | ročni | N/A | 041 | " + url
}

func TestDiffIdenticalSnapshots(t *testing.T) {
	s := snapshot(listingLine("9.500 €", "https://x/1"), listingLine("12.000 €", "https://x/2"))
	d := DiffReports("prev.txt", s, "latest.txt", s)
	if len(d.NewLines) != 0 {
		t.Errorf("NewLines = %v; want none for identical snapshots", d.NewLines)
	}
}

func TestDiffFindsNewListing(t *testing.T) {
	earlier := snapshot(listingLine("9.500 €", "https://x/1"))
	later := snapshot(listingLine("9.500 €", "https://x/1"), listingLine("12.000 €", "https://x/2"))

	d := DiffReports("prev.txt", earlier, "latest.txt", later)
	if len(d.NewLines) != 1 {
		t.Fatalf("NewLines = %v; want exactly one", d.NewLines)
	}
	if !strings.Contains(d.NewLines[0], "https://x/2") {
		t.Errorf("new line = %q; want the x/2 listing", d.NewLines[0])
	}
}

// A price change on a known URL is not a new listing.
func TestDiffIgnoresFieldDrift(t *testing.T) {
	earlier := snapshot(listingLine("9.500 €", "https://x/1"))
	later := snapshot(listingLine("8.900 €", "https://x/1"))

	d := DiffReports("prev.txt", earlier, "latest.txt", later)
	if len(d.NewLines) != 0 {
		t.Errorf("NewLines = %v; drift on a known URL must not count as new", d.NewLines)
	}
}

func TestDiffDeduplicatesWithinLater(t *testing.T) {
	later := snapshot(listingLine("9.500 €", "https://x/1"), listingLine("9.400 €", "https://x/1"))
	d := DiffReports("prev.txt", snapshot(), "latest.txt", later)

	if len(d.NewLines) != 1 {
		t.Fatalf("NewLines = %v; duplicate URL must be reported once", d.NewLines)
	}
	if !strings.Contains(d.NewLines[0], "9.500 €") {
		t.Errorf("new line = %q; first occurrence should win", d.NewLines[0])
	}
}

func TestDiffPreservesLaterOrder(t *testing.T) {
	later := snapshot(
		listingLine("9.500 €", "https://x/3"),
		listingLine("12.000 €", "https://x/2"),
		listingLine("N/A", "https://x/9"),
	)
	d := DiffReports("prev.txt", snapshot(), "latest.txt", later)

	want := []string{"https://x/3", "https://x/2", "https://x/9"}
	if len(d.NewLines) != len(want) {
		t.Fatalf("NewLines = %v; want %d lines", d.NewLines, len(want))
	}
	for i, url := range want {
		if !strings.HasSuffix(d.NewLines[i], url) {
			t.Errorf("NewLines[%d] = %q; want suffix %q", i, d.NewLines[i], url)
		}
	}
}

func TestFormatDiffArtifact(t *testing.T) {
	got := FormatDiff(&models.DiffResult{Previous: "a.txt", Latest: "b.txt"})
	if got != "No new listings.\nPrevious: a.txt\nLatest: b.txt\n" {
		t.Errorf("empty diff artifact = %q", got)
	}

	line := listingLine("9.500 €", "https://x/1")
	d := DiffReports("a.txt", snapshot(), "b.txt", snapshot(line))
	got = FormatDiff(d)
	want := "New listings: 1\nPrevious: a.txt\nLatest: b.txt\n" +
		strings.Repeat("=", 80) + "\n\n" + line + "\n"
	if got != want {
		t.Errorf("diff artifact:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestNewListingURLs(t *testing.T) {
	line := listingLine("9.500 €", "https://x/1")
	d := DiffReports("a.txt", snapshot(), "b.txt", snapshot(line))
	urls := NewListingURLs(FormatDiff(d))

	if !urls["https://x/1"] || len(urls) != 1 {
		t.Errorf("urls = %v; want exactly https://x/1", urls)
	}
}
