package web

import (
	"strings"
	"testing"
	"time"

	"classic-hunt/models"
)

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	key := models.ModelKey{Brand: "audi", Model: "80"}

	sets := map[models.ModelKey]models.RecordSet{
		key: {
			{Link: "https://x/old", Title: "Old listing", Price: "12.000 €",
				Status: models.StatusActive, FirstSeen: now.Add(-10 * 24 * time.Hour), ImageURL: models.Unknown},
			{Link: "https://x/new", Title: "Fresh listing", Price: "9.500 €",
				Status: models.StatusActive, FirstSeen: now.Add(-24 * time.Hour), ImageURL: models.Unknown},
			{Link: "https://x/gone", Title: "Sold listing", Price: "1 €",
				Status: models.StatusInactive, FirstSeen: now.Add(-24 * time.Hour), ImageURL: models.Unknown},
		},
	}

	html, err := RenderDashboard(sets, 3, now)
	if err != nil {
		t.Fatalf("RenderDashboard: %v", err)
	}

	if !strings.Contains(html, "Audi 80") {
		t.Errorf("group header missing")
	}
	if strings.Contains(html, "Sold listing") {
		t.Errorf("inactive listing rendered")
	}

	// Price order: the cheaper fresh listing renders before the older one.
	if strings.Index(html, "Fresh listing") > strings.Index(html, "Old listing") {
		t.Errorf("listings not in ascending price order")
	}

	// Only the recent listing is highlighted.
	if strings.Count(html, "new-listing\"") != 1 {
		t.Errorf("want exactly one highlighted card:\n%s", html)
	}
}

func TestRenderDashboardEmptyGroup(t *testing.T) {
	sets := map[models.ModelKey]models.RecordSet{
		{Brand: "audi", Model: "80"}: {},
	}
	html, err := RenderDashboard(sets, 3, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No results found") {
		t.Errorf("empty group placeholder missing")
	}
}
