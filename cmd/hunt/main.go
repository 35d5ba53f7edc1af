package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"classic-hunt/config"
	"classic-hunt/email"
	"classic-hunt/llm"
	"classic-hunt/pipeline"
	"classic-hunt/runlock"
	"classic-hunt/services"
	"classic-hunt/storage"
	"classic-hunt/utils"
	"classic-hunt/web"
)

const usage = `Usage: hunt [-config <hunt.json>] <command>

Commands:
  run      one full cycle: scrape, reconcile, report, diff, summarize
  scrape   like run, but without the summarizer
  email    compose and send the digest from the latest artifacts
  serve    start the dashboard HTTP server
  daemon   run on schedule and serve the dashboard
`

func main() {
	huntPath := flag.String("config", "hunt.json", "path to the hunt definition")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	logger := utils.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Config: %v", err)
	}
	hunt, err := config.LoadHunt(*huntPath)
	if err != nil {
		logger.Fatal("Hunt definition: %v", err)
	}

	logger.Info("=== Classic Hunt starting ===")
	logger.Info("Tracking %d model(s) | data: %s | reports: %s",
		len(hunt.Enabled()), cfg.DataDir, cfg.ReportsDir)

	records, err := storage.NewFileRecordStore(cfg.DataDir)
	if err != nil {
		logger.Fatal("Record store: %v", err)
	}
	reports, err := storage.NewReportStore(cfg.ReportsDir)
	if err != nil {
		logger.Fatal("Report store: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		p := buildPipeline(ctx, cfg, hunt, records, reports, logger, true)
		if err := p.Run(ctx); err != nil {
			logger.Fatal("Run failed: %v", err)
		}
	case "scrape":
		p := buildPipeline(ctx, cfg, hunt, records, reports, logger, false)
		if err := p.Run(ctx); err != nil {
			logger.Fatal("Scrape failed: %v", err)
		}
	case "email":
		p := buildPipeline(ctx, cfg, hunt, records, reports, logger, false)
		if err := p.SendEmail(ctx); err != nil {
			logger.Fatal("Email failed: %v", err)
		}
	case "serve":
		srv := web.NewServer(cfg, hunt, records, reports, logger)
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		if err := srv.ListenAndServe(); err != nil {
			logger.Fatal("Server: %v", err)
		}
	case "daemon":
		p := buildPipeline(ctx, cfg, hunt, records, reports, logger, true)
		sched := pipeline.NewScheduler(p, cfg.Schedules, logger)
		if err := sched.Start(ctx); err != nil {
			logger.Fatal("Scheduler: %v", err)
		}
		defer sched.Stop()

		srv := web.NewServer(cfg, hunt, records, reports, logger)
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		if err := srv.ListenAndServe(); err != nil {
			logger.Fatal("Server: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// buildPipeline wires the optional stages from config: Redis or file run
// lock, Postgres archive, Ollama summarizer and SMTP sender.
func buildPipeline(ctx context.Context, cfg *config.Settings, hunt *config.Hunt,
	records storage.RecordStore, reports *storage.ReportStore,
	logger *utils.Logger, withSummarizer bool) *pipeline.Pipeline {

	var lock runlock.Lock
	if cfg.Lock.RedisURL != "" {
		rl, err := runlock.NewRedisLock(ctx, cfg.Lock.RedisURL, "classic-hunt:run", cfg.Lock.TTL)
		if err != nil {
			logger.Fatal("Redis lock: %v", err)
		}
		lock = rl
		logger.Info("Using Redis run lock")
	} else {
		lock = runlock.NewFileLock(filepath.Join(cfg.DataDir, ".hunt.lock"), cfg.Lock.TTL)
	}

	var archive storage.ListingArchiver
	if cfg.Archive.PostgresDSN != "" {
		pg, err := storage.NewPostgresArchive(cfg.Archive.PostgresDSN)
		if err != nil {
			logger.Fatal("Postgres archive: %v", err)
		}
		archive = pg
		logger.Info("Archiving runs to PostgreSQL")
	}

	var summarizer *services.Summarizer
	if withSummarizer {
		gen := llm.NewOllamaClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout)
		summarizer = services.NewSummarizer(gen, reports, services.SummarizerOptions{
			ComparisonPrompt:     hunt.ComparisonPrompt,
			RecommendationPrompt: hunt.RecommendationPrompt,
			MaxReportChars:       hunt.MaxReportChars,
			PicksMaxPrice:        hunt.PicksMaxPrice,
		}, logger)
	}

	var sender *email.Sender
	if cfg.EmailConfigured() {
		sender = email.NewSender(cfg.SMTP, logger)
	}

	return pipeline.New(cfg, hunt, records, reports, archive, lock, summarizer, sender, logger)
}
