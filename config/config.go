// Package config loads runtime settings from the environment and the hunt
// definition (tracked models, report options, prompt templates) from a JSON
// file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"classic-hunt/models"
)

// Settings holds all environment-driven configuration.
type Settings struct {
	DataDir       string `envconfig:"DATA_DIR" default:"./output"`
	ReportsDir    string `envconfig:"REPORTS_DIR" default:"./reports"`
	DashboardPath string `envconfig:"DASHBOARD_PATH" default:"./results.html"`

	Scraper   ScraperSettings
	Lock      LockSettings
	Archive   ArchiveSettings
	Ollama    OllamaSettings
	SMTP      SMTPSettings
	HTTP      HTTPSettings
	Schedules ScheduleSettings
}

// ScraperSettings controls the browser-automation layer.
type ScraperSettings struct {
	Headless       bool          `envconfig:"SCRAPER_HEADLESS" default:"false"`
	ProfileDir     string        `envconfig:"CHROME_PROFILE_DIR" default:"./.chrome-profile"`
	ChromeBin      string        `envconfig:"CHROME_BIN" default:""`
	MaxRetries     int           `envconfig:"SCRAPER_MAX_RETRIES" default:"3"`
	NavTimeout     time.Duration `envconfig:"SCRAPER_NAV_TIMEOUT" default:"60s"`
	ChallengeWait  time.Duration `envconfig:"SCRAPER_CHALLENGE_WAIT" default:"2m"`
	MinSearchDelay time.Duration `envconfig:"SCRAPER_MIN_SEARCH_DELAY" default:"5s"`
	MaxSearchDelay time.Duration `envconfig:"SCRAPER_MAX_SEARCH_DELAY" default:"10s"`
}

// LockSettings controls the exclusive run lock. With a Redis URL the lock is
// shared across hosts; without one a local lock file is used.
type LockSettings struct {
	RedisURL string        `envconfig:"REDIS_URL" default:""`
	TTL      time.Duration `envconfig:"RUN_LOCK_TTL" default:"45m"`
}

// ArchiveSettings controls the optional PostgreSQL listing history.
type ArchiveSettings struct {
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
}

// OllamaSettings controls the local LLM used for summaries and picks.
type OllamaSettings struct {
	URL     string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	Model   string        `envconfig:"OLLAMA_MODEL" default:"mistral"`
	Timeout time.Duration `envconfig:"OLLAMA_TIMEOUT" default:"120s"`
}

// SMTPSettings controls the email digest. Email is skipped entirely when
// Host or To is empty.
type SMTPSettings struct {
	Host string `envconfig:"SMTP_HOST" default:""`
	Port int    `envconfig:"SMTP_PORT" default:"587"`
	User string `envconfig:"SMTP_USER" default:""`
	Pass string `envconfig:"SMTP_PASS" default:""`
	To   string `envconfig:"EMAIL_TO" default:""`
}

// HTTPSettings controls the dashboard server.
type HTTPSettings struct {
	Addr string `envconfig:"HTTP_ADDR" default:":8080"`
}

// ScheduleSettings holds the daemon cron specs.
type ScheduleSettings struct {
	Scrape string `envconfig:"SCRAPE_CRON" default:"@every 30m"`
	Email  string `envconfig:"EMAIL_CRON" default:"0 12 * * *"`
}

// Load reads the optional .env file and returns settings from environment
// variables.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &s, nil
}

// EmailConfigured reports whether the digest can be sent at all.
func (s *Settings) EmailConfigured() bool {
	return s.SMTP.Host != "" && s.SMTP.To != ""
}

// CarSearch is one tracked (brand, model) search with its bounds. Enabled
// defaults to true when omitted, matching the "enabled !== false" contract
// of the hunt file.
type CarSearch struct {
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Enabled  *bool  `json:"enabled,omitempty"`
	MinPrice int    `json:"minPrice,omitempty"`
	MaxPrice int    `json:"maxPrice,omitempty"`
	MinYear  int    `json:"minYear,omitempty"`
	MaxYear  int    `json:"maxYear,omitempty"`
}

// IsEnabled reports whether the search takes part in scraping and reports.
func (c CarSearch) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Key returns the model key for this search.
func (c CarSearch) Key() models.ModelKey {
	return models.ModelKey{Brand: c.Brand, Model: c.Model}
}

// Hunt is the JSON hunt definition: which models to track and how to report
// on them.
type Hunt struct {
	Cars           []CarSearch `json:"cars"`
	NewListingDays int         `json:"newListingDays,omitempty"`
	PicksMaxPrice  int         `json:"picksMaxPrice,omitempty"`
	MaxReportChars int         `json:"maxReportChars,omitempty"`

	ComparisonPrompt     string `json:"comparisonPrompt,omitempty"`
	RecommendationPrompt string `json:"recommendationPrompt,omitempty"`
}

// LoadHunt reads and validates the hunt definition, applying defaults for
// omitted options.
func LoadHunt(path string) (*Hunt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read hunt file: %w", err)
	}

	var h Hunt
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("config: parse hunt file %q: %w", path, err)
	}
	if len(h.Cars) == 0 {
		return nil, fmt.Errorf("config: hunt file %q defines no cars", path)
	}
	for i, c := range h.Cars {
		if c.Brand == "" || c.Model == "" {
			return nil, fmt.Errorf("config: cars[%d] is missing brand or model", i)
		}
		if h.Cars[i].MaxPrice == 0 {
			h.Cars[i].MaxPrice = 999999
		}
		if h.Cars[i].MaxYear == 0 {
			h.Cars[i].MaxYear = 2090
		}
	}

	if h.NewListingDays == 0 {
		h.NewListingDays = 3
	}
	if h.PicksMaxPrice == 0 {
		h.PicksMaxPrice = 6000
	}
	if h.MaxReportChars == 0 {
		h.MaxReportChars = 15000
	}
	if h.ComparisonPrompt == "" {
		h.ComparisonPrompt = DefaultComparisonPrompt
	}
	if h.RecommendationPrompt == "" {
		h.RecommendationPrompt = DefaultRecommendationPrompt
	}
	return &h, nil
}

// Enabled returns the searches taking part in scraping and reports.
func (h *Hunt) Enabled() []CarSearch {
	var out []CarSearch
	for _, c := range h.Cars {
		if c.IsEnabled() {
			out = append(out, c)
		}
	}
	return out
}

// EnabledKeys returns the model keys of all enabled searches as a set.
func (h *Hunt) EnabledKeys() map[models.ModelKey]bool {
	keys := make(map[models.ModelKey]bool)
	for _, c := range h.Enabled() {
		keys[c.Key()] = true
	}
	return keys
}
