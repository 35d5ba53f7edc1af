// Package pipeline orchestrates a full hunt cycle: scrape each tracked
// model, reconcile against the persisted record sets, write the report and
// diff artifacts, run the summarizer and refresh the dashboard.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classic-hunt/config"
	"classic-hunt/email"
	"classic-hunt/models"
	"classic-hunt/runlock"
	"classic-hunt/scraper/avtonet"
	"classic-hunt/services"
	"classic-hunt/storage"
	"classic-hunt/utils"
	"classic-hunt/web"
)

// Pipeline runs hunt cycles and email digests. Archive, summarizer and
// sender are optional; a nil value disables that stage.
type Pipeline struct {
	cfg        *config.Settings
	hunt       *config.Hunt
	records    storage.RecordStore
	reports    *storage.ReportStore
	archive    storage.ListingArchiver
	lock       runlock.Lock
	summarizer *services.Summarizer
	sender     *email.Sender
	logger     *utils.Logger
}

// New wires a Pipeline.
func New(cfg *config.Settings, hunt *config.Hunt, records storage.RecordStore, reports *storage.ReportStore,
	archive storage.ListingArchiver, lock runlock.Lock, summarizer *services.Summarizer,
	sender *email.Sender, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		hunt:       hunt,
		records:    records,
		reports:    reports,
		archive:    archive,
		lock:       lock,
		summarizer: summarizer,
		sender:     sender,
		logger:     logger,
	}
}

// Run executes one full cycle under the run lock. A scrape or store failure
// for one model never aborts the cycle; the model keeps its previous
// persisted state and the run moves on. Report, diff, summarizer and
// dashboard stages run even when some models failed.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.lock.Acquire(ctx); err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			p.logger.Warn("[pipeline] Another run is in progress, skipping this cycle")
			return err
		}
		return fmt.Errorf("pipeline: acquire lock: %w", err)
	}
	defer func() {
		if err := p.lock.Release(context.Background()); err != nil {
			p.logger.Warn("[pipeline] Release lock: %v", err)
		}
	}()

	runID := uuid.NewString()
	cars := p.hunt.Enabled()
	p.logger.Info("[pipeline] Run %s started for %d model(s)", runID, len(cars))

	scr := avtonet.New(p.cfg.Scraper, p.logger)
	if err := scr.Open(ctx); err != nil {
		return fmt.Errorf("pipeline: open browser: %w", err)
	}
	defer scr.Close()

	observedAt := time.Now()
	failed := 0
	for i, car := range cars {
		if i > 0 {
			delay := scr.SearchDelay()
			p.logger.Debug("[pipeline] Waiting %s before next search", delay.Round(time.Second))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := p.runModel(ctx, scr, car, runID, observedAt); err != nil {
			p.logger.Error("[pipeline] %s: %v", car.Key(), err)
			failed++
		}
	}
	if failed == len(cars) {
		p.logger.Warn("[pipeline] Every model failed this cycle; report reflects previous state")
	}

	if err := p.report(observedAt); err != nil {
		return err
	}

	if p.summarizer != nil {
		if err := p.summarizer.Run(ctx, time.Now()); err != nil && !errors.Is(err, services.ErrNoComparison) {
			p.logger.Warn("[pipeline] Summarizer: %v", err)
		}
	}

	if err := p.refreshDashboard(); err != nil {
		p.logger.Warn("[pipeline] Dashboard: %v", err)
	}

	p.logger.Info("[pipeline] Run %s complete", runID)
	return nil
}

// runModel scrapes one model, reconciles it against its stored set and
// persists the result.
func (p *Pipeline) runModel(ctx context.Context, scr *avtonet.Scraper, car config.CarSearch, runID string, observedAt time.Time) error {
	key := car.Key()

	fresh, err := scr.ScrapeModel(ctx, car)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	existing, err := p.records.Load(key)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	set := services.Reconcile(existing, fresh, observedAt)
	if err := p.records.Save(key, set); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	p.logger.Info("[pipeline] %s: %d active of %d tracked", key, len(set.Active()), len(set))

	if p.archive != nil {
		if err := p.archive.ArchiveRun(runID, key, set); err != nil {
			p.logger.Warn("[pipeline] Archive %s: %v", key, err)
		}
	}
	return nil
}

// report builds and saves the snapshot from every enabled model's persisted
// set, then diffs it against the previous snapshot.
func (p *Pipeline) report(capturedAt time.Time) error {
	sets, err := p.loadSets()
	if err != nil {
		return fmt.Errorf("pipeline: load sets for report: %w", err)
	}

	report := services.BuildReport(sets, p.hunt.EnabledKeys(), capturedAt)
	name, err := p.reports.SaveReport(services.FormatReport(report), capturedAt)
	if err != nil {
		return fmt.Errorf("pipeline: save report: %w", err)
	}
	p.logger.Info("[pipeline] Report saved to %s (%d active listings)", name, report.TotalActive)

	latest, previous, err := p.reports.LastTwo()
	if err != nil {
		return fmt.Errorf("pipeline: load reports for diff: %w", err)
	}
	if previous == nil {
		p.logger.Info("[pipeline] %v", services.ErrNoComparison)
		return nil
	}

	diff := services.DiffReports(previous.Name, previous.Content, latest.Name, latest.Content)
	diffName, err := p.reports.SaveDiff(diff, services.FormatDiff(diff))
	if err != nil {
		return fmt.Errorf("pipeline: save diff: %w", err)
	}
	p.logger.Info("[pipeline] %d new listing(s), diff saved to %s", len(diff.NewLines), diffName)
	return nil
}

func (p *Pipeline) refreshDashboard() error {
	sets, err := p.loadSets()
	if err != nil {
		return err
	}
	if err := web.WriteDashboard(p.cfg.DashboardPath, sets, p.hunt.NewListingDays, time.Now()); err != nil {
		return err
	}
	p.logger.Info("[pipeline] Dashboard written to %s", p.cfg.DashboardPath)
	return nil
}

func (p *Pipeline) loadSets() (map[models.ModelKey]models.RecordSet, error) {
	sets := make(map[models.ModelKey]models.RecordSet)
	for key := range p.hunt.EnabledKeys() {
		set, err := p.records.Load(key)
		if err != nil {
			return nil, err
		}
		sets[key] = set
	}
	return sets, nil
}

// SendEmail composes and sends the digest from the latest archived report
// and artifacts.
func (p *Pipeline) SendEmail(ctx context.Context) error {
	if p.sender == nil {
		p.logger.Info("[pipeline] Email not configured, skipping digest")
		return nil
	}

	latest, err := p.reports.LatestByPrefix("report_")
	if err != nil {
		return fmt.Errorf("pipeline: load latest report: %w", err)
	}
	if latest == nil {
		return fmt.Errorf("pipeline: no report archived yet, nothing to send")
	}

	report, skipped := services.ParseReport(latest.Content)
	if skipped > 0 {
		p.logger.Warn("[pipeline] %d malformed line(s) skipped while parsing %s", skipped, latest.Name)
	}

	scrapeTime := ""
	if !report.CapturedAt.IsZero() {
		scrapeTime = report.CapturedAt.Format(models.ReportTimeLayout)
	}

	in := email.DigestInput{
		Date:       time.Now().Format("2006-01-02"),
		ScrapeTime: scrapeTime,
		Report:     report,
		Summary:    p.artifactBody("summary_"),
		Picks:      p.artifactBody("picks_"),
		NewURLs:    p.latestDiffURLs(),
	}

	if err := p.sender.Send(email.Subject(in), email.BuildText(in), email.BuildHTML(in)); err != nil {
		return fmt.Errorf("pipeline: send digest: %w", err)
	}
	p.logger.Info("[pipeline] Digest sent to %s", p.cfg.SMTP.To)
	return nil
}

// artifactBody loads the newest artifact with the given prefix and strips
// its header. Missing artifacts come back empty; the digest renders without
// that section.
func (p *Pipeline) artifactBody(prefix string) string {
	art, err := p.reports.LatestByPrefix(prefix)
	if err != nil {
		p.logger.Warn("[pipeline] Load %s artifact: %v", prefix, err)
		return ""
	}
	if art == nil {
		return ""
	}
	return stripArtifactHeader(art.Content)
}

func (p *Pipeline) latestDiffURLs() map[string]bool {
	diff, err := p.reports.LatestDiff()
	if err != nil {
		p.logger.Warn("[pipeline] Load latest diff: %v", err)
		return nil
	}
	if diff == nil {
		return nil
	}
	return services.NewListingURLs(diff.Content)
}

// stripArtifactHeader drops everything up to and including the "=" rule
// that closes an artifact header. Text without a rule passes through whole.
func stripArtifactHeader(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "====") {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return text
}
