package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"classic-hunt/storage"
	"classic-hunt/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

// stubGenerator records prompts and returns canned output.
type stubGenerator struct {
	prompts []string
	out     string
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.out, g.err
}

func (g *stubGenerator) Model() string { return "stub" }

func testReportText(price, url string) string {
	return "Classic Hunt Report - 29. 8. 2026 14:05:03\nActive listings: 1\n" +
		strings.Repeat("=", 120) + "\n\n--- Audi 80 ---\n" +
		price + " | Audi 80 | 1990 | 160.000 km | 90 HP | bencin | ročni | N/A | 041 | " + url + "\n"
}

func newTestOpts() SummarizerOptions {
	return SummarizerOptions{
		ComparisonPrompt:     "latest on {{LATEST_DATE}}:\n{{LATEST_REPORT}}\nprevious on {{PREVIOUS_DATE}}:\n{{PREVIOUS_REPORT}}",
		RecommendationPrompt: "pick from:\n{{LATEST_REPORT}}",
		MaxReportChars:       15000,
		PicksMaxPrice:        6000,
	}
}

func TestSummarizerWritesBothArtifacts(t *testing.T) {
	reports, err := storage.NewReportStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reports.SaveReport(testReportText("9.500 €", "https://x/1"),
		time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if _, err := reports.SaveReport(testReportText("5.500 €", "https://x/2"),
		time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	gen := &stubGenerator{out: "analysis text"}
	s := NewSummarizer(gen, reports, newTestOpts(), newTestLogger())

	now := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)
	if err := s.Run(context.Background(), now); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(gen.prompts) != 2 {
		t.Fatalf("prompts = %d; want comparison + picks", len(gen.prompts))
	}
	comparison := gen.prompts[0]
	if !strings.Contains(comparison, "2026-08-29 12:00:00") || !strings.Contains(comparison, "2026-08-28 12:00:00") {
		t.Errorf("comparison prompt missing report dates:\n%s", comparison)
	}
	if strings.Contains(comparison, "{{") {
		t.Errorf("unsubstituted placeholder left in prompt:\n%s", comparison)
	}

	summary, err := reports.LatestByPrefix("summary_")
	if err != nil || summary == nil {
		t.Fatalf("summary artifact missing: %v", err)
	}
	if summary.Name != "summary_2026-08-29.txt" {
		t.Errorf("summary name = %q", summary.Name)
	}
	if !strings.Contains(summary.Content, "analysis text") {
		t.Errorf("summary content = %q", summary.Content)
	}

	picks, err := reports.LatestByPrefix("picks_")
	if err != nil || picks == nil {
		t.Fatalf("picks artifact missing: %v", err)
	}
	if picks.Name != "picks_2026-08-29.txt" {
		t.Errorf("picks name = %q", picks.Name)
	}
}

// Picks run against the budget-filtered view, never the full report.
func TestSummarizerPicksAreBudgetFiltered(t *testing.T) {
	reports, err := storage.NewReportStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	text := "Classic Hunt Report - 29. 8. 2026 14:05:03\nActive listings: 2\n" +
		strings.Repeat("=", 120) + "\n\n--- Audi 80 ---\n" +
		"5.500 € | Cheap | 1990 | 160.000 km | 90 HP | bencin | ročni | N/A | 041 | https://x/1\n" +
		"19.000 € | Pricey | 1990 | 160.000 km | 90 HP | bencin | ročni | N/A | 041 | https://x/2\n"
	if _, err := reports.SaveReport(text, time.Now()); err != nil {
		t.Fatal(err)
	}

	gen := &stubGenerator{out: "picks"}
	s := NewSummarizer(gen, reports, newTestOpts(), newTestLogger())
	s.Run(context.Background(), time.Now())

	picksPrompt := gen.prompts[len(gen.prompts)-1]
	if strings.Contains(picksPrompt, "Pricey") {
		t.Errorf("over-budget listing leaked into picks prompt:\n%s", picksPrompt)
	}
	if !strings.Contains(picksPrompt, "Cheap") {
		t.Errorf("in-budget listing missing from picks prompt:\n%s", picksPrompt)
	}
}

// With a single archived report the comparison reports ErrNoComparison but
// the picks still run.
func TestSummarizerSingleReport(t *testing.T) {
	reports, err := storage.NewReportStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reports.SaveReport(testReportText("5.500 €", "https://x/1"), time.Now()); err != nil {
		t.Fatal(err)
	}

	gen := &stubGenerator{out: "picks"}
	s := NewSummarizer(gen, reports, newTestOpts(), newTestLogger())

	err = s.Run(context.Background(), time.Now())
	if !errors.Is(err, ErrNoComparison) {
		t.Errorf("err = %v; want ErrNoComparison", err)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("prompts = %d; picks should still run", len(gen.prompts))
	}
	if summary, _ := reports.LatestByPrefix("summary_"); summary != nil {
		t.Errorf("summary artifact written without a comparison: %q", summary.Name)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncate(long, 10)
	if got != strings.Repeat("x", 10)+"\n... [truncated]" {
		t.Errorf("truncate = %q", got)
	}
	if truncate("short", 10) != "short" {
		t.Errorf("short input must pass through")
	}
}
