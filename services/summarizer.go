package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classic-hunt/llm"
	"classic-hunt/models"
	"classic-hunt/storage"
	"classic-hunt/utils"
)

// SummarizerOptions are the prompt templates and limits for LLM output.
type SummarizerOptions struct {
	ComparisonPrompt     string
	RecommendationPrompt string
	MaxReportChars       int
	PicksMaxPrice        int
}

// Summarizer turns archived reports into two LLM artifacts: a comparison
// summary of the last two reports and budget-filtered top picks from the
// latest one.
type Summarizer struct {
	gen     llm.Generator
	reports *storage.ReportStore
	opts    SummarizerOptions
	logger  *utils.Logger
}

// NewSummarizer wires a Summarizer.
func NewSummarizer(gen llm.Generator, reports *storage.ReportStore, opts SummarizerOptions, logger *utils.Logger) *Summarizer {
	return &Summarizer{gen: gen, reports: reports, opts: opts, logger: logger}
}

// Run produces both artifacts for the given day. The comparison summary
// requires two reports and returns ErrNoComparison wrapped when only one
// exists; picks always run against the latest report. Each artifact failure
// is independent: the picks still run when the comparison fails.
func (s *Summarizer) Run(ctx context.Context, now time.Time) error {
	latest, previous, err := s.reports.LastTwo()
	if err != nil {
		return fmt.Errorf("summarizer: load reports: %w", err)
	}
	if latest == nil {
		return fmt.Errorf("summarizer: no reports archived yet")
	}

	var firstErr error

	if previous == nil {
		s.logger.Info("[summarizer] %v", ErrNoComparison)
		firstErr = ErrNoComparison
	} else {
		if err := s.comparison(ctx, latest, previous, now); err != nil {
			s.logger.Warn("[summarizer] Comparison summary failed: %v", err)
			firstErr = err
		}
	}

	if err := s.picks(ctx, latest, now); err != nil {
		s.logger.Warn("[summarizer] Picks failed: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (s *Summarizer) comparison(ctx context.Context, latest, previous *storage.StoredReport, now time.Time) error {
	s.logger.Info("[summarizer] Comparing %s against %s", latest.Name, previous.Name)

	prompt := s.buildPrompt(s.opts.ComparisonPrompt, latest, previous)
	summary, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("summary_%s.txt", now.Format("2006-01-02"))
	text := artifactHeader("Classic Hunt LLM Summary", s.gen.Model(), now) + summary
	if err := s.reports.SaveArtifact(name, text); err != nil {
		return err
	}
	s.logger.Info("[summarizer] Summary saved to %s", name)
	return nil
}

func (s *Summarizer) picks(ctx context.Context, latest *storage.StoredReport, now time.Time) error {
	report, skipped := ParseReport(latest.Content)
	if skipped > 0 {
		s.logger.Warn("[summarizer] %d malformed line(s) skipped while parsing %s", skipped, latest.Name)
	}

	filtered := FilterByMaxPrice(report, s.opts.PicksMaxPrice)
	s.logger.Info("[summarizer] Filtered to %d listings under %d EUR for picks",
		filtered.TotalActive, s.opts.PicksMaxPrice)

	budget := &storage.StoredReport{Name: latest.Name, Content: FormatReport(filtered)}
	prompt := s.buildPrompt(s.opts.RecommendationPrompt, budget, nil)
	picks, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("picks_%s.txt", now.Format("2006-01-02"))
	text := artifactHeader("Classic Hunt Top Picks", s.gen.Model(), now) + picks
	if err := s.reports.SaveArtifact(name, text); err != nil {
		return err
	}
	s.logger.Info("[summarizer] Picks saved to %s", name)
	return nil
}

// buildPrompt substitutes the report placeholders into a template,
// truncating each report body at MaxReportChars.
func (s *Summarizer) buildPrompt(template string, latest, previous *storage.StoredReport) string {
	out := strings.ReplaceAll(template, "{{LATEST_REPORT}}", truncate(latest.Content, s.opts.MaxReportChars))
	out = strings.ReplaceAll(out, "{{LATEST_DATE}}", reportDate(latest.Name))
	if previous != nil {
		out = strings.ReplaceAll(out, "{{PREVIOUS_REPORT}}", truncate(previous.Content, s.opts.MaxReportChars))
		out = strings.ReplaceAll(out, "{{PREVIOUS_DATE}}", reportDate(previous.Name))
	}
	return out
}

func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max] + "\n... [truncated]"
}

// reportDate turns "report_2026-08-29T12-30-45.txt" into
// "2026-08-29 12:30:45"; unrecognized names pass through unchanged.
func reportDate(name string) string {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "report_"), ".txt")
	t, err := time.Parse("2006-01-02T15-04-05", stamp)
	if err != nil {
		return name
	}
	return t.Format("2006-01-02 15:04:05")
}

// artifactHeader heads every LLM artifact; the email digest strips it at the
// "=" rule.
func artifactHeader(title, model string, now time.Time) string {
	return fmt.Sprintf("%s - %s\nModel: %s\n%s\n\n",
		title, now.Format(models.ReportTimeLayout), model, strings.Repeat("=", 60))
}
