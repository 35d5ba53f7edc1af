package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"classic-hunt/models"
)

const (
	reportPrefix = "report_"
	reportSuffix = ".txt"
	diffSuffix   = "_new.txt"

	// reportStampLayout names report files by capture time (UTC), with
	// colons replaced so the name is filesystem-safe everywhere.
	reportStampLayout = "2006-01-02T15-04-05"
)

// StoredReport is one archived artifact: its file name and full text.
type StoredReport struct {
	Name    string
	Content string
}

// ReportStore archives rendered snapshots and their derived artifacts
// (diffs, LLM summaries, picks) as flat text files under one directory.
type ReportStore struct {
	dir string
}

// NewReportStore creates the reports directory if needed.
func NewReportStore(dir string) (*ReportStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("reports: create dir %q: %w", dir, err)
	}
	return &ReportStore{dir: dir}, nil
}

// SaveReport archives a rendered snapshot under its capture timestamp and
// returns the file name.
func (s *ReportStore) SaveReport(text string, capturedAt time.Time) (string, error) {
	name := reportPrefix + capturedAt.UTC().Format(reportStampLayout) + reportSuffix
	if err := s.write(name, text); err != nil {
		return "", err
	}
	return name, nil
}

// LastTwo returns the newest and second-newest archived reports. latest is
// nil when no report exists yet; previous is nil when only one exists — the
// caller must treat that as "no comparison possible", never as an empty
// diff.
func (s *ReportStore) LastTwo() (latest, previous *StoredReport, err error) {
	names, err := s.reportNames()
	if err != nil || len(names) == 0 {
		return nil, nil, err
	}

	latest, err = s.read(names[0])
	if err != nil {
		return nil, nil, err
	}
	if len(names) >= 2 {
		previous, err = s.read(names[1])
		if err != nil {
			return nil, nil, err
		}
	}
	return latest, previous, nil
}

// SaveDiff writes the rendered diff artifact, named after both report
// timestamps: "<prevStamp>_<latestStamp>_new.txt".
func (s *ReportStore) SaveDiff(d *models.DiffResult, text string) (string, error) {
	name := reportStamp(d.Previous) + "_" + reportStamp(d.Latest) + diffSuffix
	if err := s.write(name, text); err != nil {
		return "", err
	}
	return name, nil
}

// SaveArtifact writes an arbitrary named artifact (summary, picks).
func (s *ReportStore) SaveArtifact(name, text string) error {
	return s.write(name, text)
}

// LatestByPrefix returns the newest artifact whose name starts with prefix,
// or nil when none exists.
func (s *ReportStore) LatestByPrefix(prefix string) (*StoredReport, error) {
	name, err := s.newest(func(n string) bool { return strings.HasPrefix(n, prefix) })
	if err != nil || name == "" {
		return nil, err
	}
	return s.read(name)
}

// LatestDiff returns the newest diff artifact, or nil when none exists.
func (s *ReportStore) LatestDiff() (*StoredReport, error) {
	name, err := s.newest(func(n string) bool { return strings.HasSuffix(n, diffSuffix) })
	if err != nil || name == "" {
		return nil, err
	}
	return s.read(name)
}

// ListNames returns every artifact file name, newest first.
func (s *ReportStore) ListNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reports: list dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), reportSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Read returns a named artifact. The name must be a bare file name; path
// separators are rejected.
func (s *ReportStore) Read(name string) (*StoredReport, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("reports: invalid artifact name %q", name)
	}
	return s.read(name)
}

func (s *ReportStore) reportNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reports: list dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, reportPrefix) &&
			strings.HasSuffix(name, reportSuffix) && !strings.HasSuffix(name, diffSuffix) {
			names = append(names, name)
		}
	}
	// Stamp order equals lexicographic order, so newest sorts first after
	// reversal.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *ReportStore) newest(match func(string) bool) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("reports: list dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

func (s *ReportStore) read(name string) (*StoredReport, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reports: read %s: %w", name, err)
	}
	return &StoredReport{Name: name, Content: string(data)}, nil
}

func (s *ReportStore) write(name, text string) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(text), 0644); err != nil {
		return fmt.Errorf("reports: write %s: %w", name, err)
	}
	return nil
}

// reportStamp strips the report file name down to its timestamp part.
func reportStamp(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, reportPrefix), reportSuffix)
}
