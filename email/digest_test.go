package email

import (
	"strings"
	"testing"

	"classic-hunt/models"
)

func testDigestInput() DigestInput {
	return DigestInput{
		Date:       "2026-08-29",
		ScrapeTime: "29. 8. 2026 14:05:03",
		Report: &models.Report{
			TotalActive: 2,
			Groups: []models.ReportGroup{{
				Label: "Audi 80",
				Lines: []models.ReportLine{
					{Price: "9.500 €", Title: "Audi 80 1.8S", Year: "1990", Kilometers: "160.000 km",
						Horsepower: "90 HP", Fuel: "bencin", Gearbox: "ročni",
						Color: models.Unknown, Phone: models.Unknown, URL: "https://x/1"},
					{Price: "12.000 €", Title: "Audi 80 Quattro", Year: "1991", Kilometers: "120.000 km",
						Horsepower: "115 HP", Fuel: "bencin", Gearbox: "ročni",
						Color: "rdeča", Phone: "041 123 456", URL: "https://x/2"},
				},
			}},
		},
		Summary: "Two listings tracked, one price drop.",
		Picks:   "1. Audi 80 1.8S — solid base — https://x/1",
		NewURLs: map[string]bool{"https://x/2": true},
	}
}

func TestSubject(t *testing.T) {
	if got := Subject(testDigestInput()); got != "Classic Hunt: 2 listings - 2026-08-29" {
		t.Errorf("Subject = %q", got)
	}
	if got := Subject(DigestInput{Date: "2026-08-29"}); got != "Classic Hunt: 0 listings - 2026-08-29" {
		t.Errorf("Subject without report = %q", got)
	}
}

func TestBuildTextSections(t *testing.T) {
	text := BuildText(testDigestInput())

	for _, want := range []string{
		"Classic Hunt - 2026-08-29",
		"Data scraped: 29. 8. 2026 14:05:03",
		"Two listings tracked",
		"--- Audi 80 (2) ---",
		"https://x/1",
		"[NEW] 12.000 €",
		"TOP 5 PICKS FOR YOU",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text digest missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "[NEW] 9.500 €") {
		t.Errorf("old listing badged as new:\n%s", text)
	}
}

func TestBuildHTMLBadgesAndEscaping(t *testing.T) {
	in := testDigestInput()
	in.Report.Groups[0].Lines[0].Title = "Audi 80 <rare>"
	html := BuildHTML(in)

	if !strings.Contains(html, `class="new-listing"`) {
		t.Errorf("new listing row not highlighted")
	}
	if strings.Count(html, "new-badge\">NEW") != 1 {
		t.Errorf("want exactly one NEW badge")
	}
	if !strings.Contains(html, "Audi 80 &lt;rare&gt;") {
		t.Errorf("title not escaped:\n%s", html)
	}
	if strings.Contains(html, "<rare>") {
		t.Errorf("raw markup leaked through")
	}
}

// The picks block hides the raw URL under the car-name link.
func TestPicksHTML(t *testing.T) {
	got := picksHTML("1. Audi 80 1.8S — solid base, needs tyres — https://x/1")

	if strings.Contains(got, ">https://x/1<") {
		t.Errorf("raw URL still visible: %q", got)
	}
	if !strings.Contains(got, `<a href="https://x/1">Audi 80 1.8S</a>`) {
		t.Errorf("car name not linked: %q", got)
	}
	if !strings.Contains(got, "solid base, needs tyres") {
		t.Errorf("detail text lost: %q", got)
	}
}

func TestPicksHTMLPlainLine(t *testing.T) {
	got := picksHTML("No standouts this week.")
	if got != "No standouts this week." {
		t.Errorf("plain line = %q; must pass through unchanged", got)
	}
}

func TestLineDetailsDropsUnknowns(t *testing.T) {
	l := models.ReportLine{Horsepower: "90 HP", Fuel: models.Unknown, Gearbox: "ročni", Color: ""}
	if got := lineDetails(l); got != "90 HP | ročni" {
		t.Errorf("lineDetails = %q", got)
	}
}
