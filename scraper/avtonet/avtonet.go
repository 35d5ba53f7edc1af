// Package avtonet drives a real Chrome instance against avto.net search
// result pages and extracts raw listing rows. The site sits behind
// Cloudflare, so the scraper runs non-headless by default with a persistent
// profile and waits for the operator to solve challenges when they appear.
package avtonet

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"classic-hunt/config"
	"classic-hunt/models"
	"classic-hunt/utils"
)

const homeURL = "https://www.avto.net"

// ErrChallengeUnsolved is returned when a Cloudflare challenge was still
// blocking the page after the configured wait.
var ErrChallengeUnsolved = fmt.Errorf("cloudflare challenge not solved in time")

// Scraper holds one browser session reused across all model searches. Model
// searches are strictly sequential on the single page; concurrency is a
// non-goal here because the session carries the anti-bot state.
type Scraper struct {
	cfg    config.ScraperSettings
	logger *utils.Logger
	retry  *utils.RetryConfig

	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
	tab         context.Context
}

// New creates an avto.net Scraper.
func New(cfg config.ScraperSettings, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Open launches the browser, warms up on the homepage, and clears any
// Cloudflare challenge. It must be called once before ScrapeModel.
func (s *Scraper) Open(ctx context.Context) error {
	chromeBin := s.findChromeBinary()
	s.logger.Info("[avtonet] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.UserDataDir(s.cfg.ProfileDir),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	s.cancelAlloc = cancelAlloc

	// One tab for the whole run; chromedp log noise suppressed.
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	s.cancelTab = cancelTab
	s.tab = tab

	s.logger.Info("[avtonet] Visiting homepage...")
	navCtx, cancel := context.WithTimeout(tab, s.cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(homeURL),
		chromedp.Sleep(3*time.Second+jitter(2*time.Second)),
	); err != nil {
		return fmt.Errorf("avtonet: homepage: %w", err)
	}

	if err := s.waitForChallenge(tab, "homepage"); err != nil {
		return fmt.Errorf("avtonet: homepage: %w", err)
	}
	s.logger.Info("[avtonet] Homepage OK")
	return nil
}

// Close shuts the browser down.
func (s *Scraper) Close() {
	if s.cancelTab != nil {
		s.cancelTab()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

// ScrapeModel loads the search results for one car search and extracts every
// result row. Rows the page failed to render fully come back with empty
// fields; reconciliation treats those as unknown, not as errors.
func (s *Scraper) ScrapeModel(ctx context.Context, car config.CarSearch) ([]*models.RawListing, error) {
	if s.tab == nil {
		return nil, fmt.Errorf("avtonet: scraper not opened")
	}
	label := car.Brand + " " + car.Model
	s.logger.Info("[avtonet] Searching for %s...", label)

	var rows []rowData
	err := s.retry.Do(ctx, "search-"+label, func() error {
		navCtx, cancel := context.WithTimeout(s.tab, s.cfg.NavTimeout)
		defer cancel()

		if err := chromedp.Run(navCtx,
			chromedp.Navigate(searchURL(car)),
			chromedp.Sleep(2*time.Second+jitter(time.Second)),
		); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}

		if err := s.waitForChallenge(s.tab, label); err != nil {
			return err
		}

		var count int
		if err := chromedp.Run(navCtx, chromedp.Evaluate(
			`document.querySelectorAll('.GO-Results-Row').length`, &count)); err != nil {
			return fmt.Errorf("count rows: %w", err)
		}
		if count == 0 {
			s.logger.Warn("[avtonet] No listings found for %s", label)
			rows = nil
			return nil
		}

		// Scroll in steps so lazy-loaded rows render.
		if err := chromedp.Run(navCtx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),
		); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}

		if err := chromedp.Run(navCtx, chromedp.Evaluate(extractScript, &rows)); err != nil {
			return fmt.Errorf("extract rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	scrapedAt := time.Now()
	listings := make([]*models.RawListing, 0, len(rows))
	for _, r := range rows {
		listings = append(listings, &models.RawListing{
			Link:       r.Link,
			Title:      r.Title,
			Price:      r.Price,
			Year:       r.Year,
			Kilometers: r.Kilometers,
			Horsepower: r.Horsepower,
			Fuel:       r.Fuel,
			Gearbox:    r.Gearbox,
			Color:      r.Color,
			Phone:      r.Phone,
			ImageURL:   r.ImageURL,
			ScrapedAt:  scrapedAt,
		})
	}

	s.logger.Info("[avtonet] Found %d listings for %s", len(listings), label)
	return listings, nil
}

// SearchDelay returns the randomized pause between two model searches.
func (s *Scraper) SearchDelay() time.Duration {
	return s.cfg.MinSearchDelay + jitter(s.cfg.MaxSearchDelay-s.cfg.MinSearchDelay)
}

// waitForChallenge polls the page until Cloudflare block markers disappear
// or the configured wait elapses. With a visible browser the operator can
// solve the challenge by hand in the meantime.
func (s *Scraper) waitForChallenge(tab context.Context, label string) error {
	blocked, err := s.isBlocked(tab)
	if err != nil {
		return err
	}
	if !blocked {
		return nil
	}

	s.logger.Warn("[avtonet] Cloudflare challenge detected for %s — waiting up to %v for it to clear",
		label, s.cfg.ChallengeWait)

	deadline := time.Now().Add(s.cfg.ChallengeWait)
	for time.Now().Before(deadline) {
		select {
		case <-tab.Done():
			return tab.Err()
		case <-time.After(time.Second):
		}

		blocked, err = s.isBlocked(tab)
		if err != nil {
			return err
		}
		if !blocked {
			s.logger.Info("[avtonet] Challenge solved for %s — continuing", label)
			time.Sleep(2 * time.Second)
			return nil
		}
	}
	return ErrChallengeUnsolved
}

func (s *Scraper) isBlocked(tab context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(tab, 15*time.Second)
	defer cancel()

	var content string
	if err := chromedp.Run(ctx, chromedp.Evaluate(
		`document.documentElement.outerHTML`, &content)); err != nil {
		return false, fmt.Errorf("read page: %w", err)
	}
	return strings.Contains(content, "Sorry you have been blocked") ||
		strings.Contains(content, "challenge-platform") ||
		(strings.Contains(content, "Cloudflare") && strings.Contains(content, "challenge")), nil
}

func (s *Scraper) findChromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
