package services

import (
	"testing"
	"time"

	"classic-hunt/models"
)

var (
	t0 = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	t1 = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
)

func raw(link, price string) *models.RawListing {
	return &models.RawListing{Link: link, Title: "Some Car", Price: price}
}

func TestReconcileFirstBatch(t *testing.T) {
	set := Reconcile(nil, []*models.RawListing{raw("https://x/a", "9.500 €")}, t0)

	if len(set) != 1 {
		t.Fatalf("len = %d; want 1", len(set))
	}
	rec := set[0]
	if rec.Status != models.StatusActive {
		t.Errorf("Status = %q; want active", rec.Status)
	}
	if !rec.FirstSeen.Equal(t0) || !rec.LastUpdate.Equal(t0) {
		t.Errorf("FirstSeen = %v, LastUpdate = %v; want both %v", rec.FirstSeen, rec.LastUpdate, t0)
	}
}

// A listing that disappears from the batch goes inactive but is never
// deleted; one that reappears goes active again with its original FirstSeen.
func TestReconcileLifecycle(t *testing.T) {
	set := Reconcile(nil, []*models.RawListing{raw("https://x/a", "9.500 €"), raw("https://x/b", "12.000 €")}, t0)

	// Second run: only B present.
	set = Reconcile(set, []*models.RawListing{raw("https://x/b", "11.500 €")}, t1)
	if len(set) != 2 {
		t.Fatalf("len after second run = %d; want 2", len(set))
	}

	byLink := set.ByLink()
	a, b := byLink["https://x/a"], byLink["https://x/b"]

	if a.Status != models.StatusInactive {
		t.Errorf("a.Status = %q; want inactive", a.Status)
	}
	if !a.LastUpdate.Equal(t0) {
		t.Errorf("a.LastUpdate = %v; want unchanged %v", a.LastUpdate, t0)
	}
	if b.Status != models.StatusActive {
		t.Errorf("b.Status = %q; want active", b.Status)
	}
	if !b.FirstSeen.Equal(t0) {
		t.Errorf("b.FirstSeen = %v; want preserved %v", b.FirstSeen, t0)
	}
	if !b.LastUpdate.Equal(t1) {
		t.Errorf("b.LastUpdate = %v; want %v", b.LastUpdate, t1)
	}
	if b.Price != "11.500 €" {
		t.Errorf("b.Price = %q; want refreshed price", b.Price)
	}

	// Third run: A reappears.
	t2 := t1.Add(24 * time.Hour)
	set = Reconcile(set, []*models.RawListing{raw("https://x/a", "8.900 €"), raw("https://x/b", "11.500 €")}, t2)
	a = set.ByLink()["https://x/a"]
	if a.Status != models.StatusActive {
		t.Errorf("reactivated a.Status = %q; want active", a.Status)
	}
	if !a.FirstSeen.Equal(t0) {
		t.Errorf("reactivated a.FirstSeen = %v; want original %v", a.FirstSeen, t0)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	batch := []*models.RawListing{raw("https://x/a", "9.500 €"), raw("https://x/b", "12.000 €")}
	set := Reconcile(nil, batch, t0)
	again := Reconcile(set, batch, t0)

	if len(again) != len(set) {
		t.Fatalf("len changed on identical batch: %d -> %d", len(set), len(again))
	}
	for i := range set {
		if *set[i] != *again[i] {
			t.Errorf("record %d changed on identical batch:\n  %+v\n  %+v", i, *set[i], *again[i])
		}
	}
}

func TestReconcileDropsLinklessAndDupes(t *testing.T) {
	batch := []*models.RawListing{
		raw("", "1 €"),
		raw("  ", "2 €"),
		raw("https://x/a", "first"),
		raw("https://x/a", "second"),
	}
	set := Reconcile(nil, batch, t0)

	if len(set) != 1 {
		t.Fatalf("len = %d; want 1", len(set))
	}
	if set[0].Price != "first" {
		t.Errorf("Price = %q; first occurrence should win", set[0].Price)
	}
}

func TestReconcileUnknownFields(t *testing.T) {
	batch := []*models.RawListing{{Link: "https://x/a", Title: "  Audi   80  ", Price: ""}}
	rec := Reconcile(nil, batch, t0)[0]

	if rec.Title != "Audi 80" {
		t.Errorf("Title = %q; want collapsed whitespace", rec.Title)
	}
	for field, got := range map[string]string{
		"Price": rec.Price, "Year": rec.Year, "Fuel": rec.Fuel, "Phone": rec.Phone,
	} {
		if got != models.Unknown {
			t.Errorf("%s = %q; want %q", field, got, models.Unknown)
		}
	}
}

// Output order is the fresh batch first, carried-over history after.
func TestReconcileOrder(t *testing.T) {
	set := Reconcile(nil, []*models.RawListing{raw("https://x/a", "1"), raw("https://x/b", "2")}, t0)
	set = Reconcile(set, []*models.RawListing{raw("https://x/c", "3"), raw("https://x/b", "2")}, t1)

	want := []string{"https://x/c", "https://x/b", "https://x/a"}
	if len(set) != len(want) {
		t.Fatalf("len = %d; want %d", len(set), len(want))
	}
	for i, link := range want {
		if set[i].Link != link {
			t.Errorf("set[%d].Link = %q; want %q", i, set[i].Link, link)
		}
	}
}
