package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"classic-hunt/models"
)

// PostgresArchive keeps a long-term history of every reconciled record set
// in PostgreSQL, one row per (run, listing). The JSON files under the data
// directory stay the canonical store; the archive exists for querying
// price/status history across runs.
type PostgresArchive struct {
	db *sql.DB
}

// NewPostgresArchive opens a connection, runs schema migrations, and
// returns a ready-to-use archive.
func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: ping failed after retries: %w", err)
	}

	a := &PostgresArchive{db: db}
	if err := a.migrate(); err != nil {
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return a, nil
}

func (a *PostgresArchive) migrate() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS listing_history (
			run_id      UUID         NOT NULL,
			brand       VARCHAR(100) NOT NULL,
			model       VARCHAR(100) NOT NULL,
			link        TEXT         NOT NULL,
			title       TEXT         NOT NULL DEFAULT 'N/A',
			price       TEXT         NOT NULL DEFAULT 'N/A',
			year        TEXT         NOT NULL DEFAULT 'N/A',
			kilometers  TEXT         NOT NULL DEFAULT 'N/A',
			horsepower  TEXT         NOT NULL DEFAULT 'N/A',
			fuel        TEXT         NOT NULL DEFAULT 'N/A',
			gearbox     TEXT         NOT NULL DEFAULT 'N/A',
			color       TEXT         NOT NULL DEFAULT 'N/A',
			phone       TEXT         NOT NULL DEFAULT 'N/A',
			image_url   TEXT         NOT NULL DEFAULT 'N/A',
			status      VARCHAR(10)  NOT NULL,
			first_seen  TIMESTAMPTZ  NOT NULL,
			last_update TIMESTAMPTZ  NOT NULL,
			archived_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, link)
		);

		CREATE INDEX IF NOT EXISTS idx_history_link   ON listing_history(link);
		CREATE INDEX IF NOT EXISTS idx_history_model  ON listing_history(brand, model);
		CREATE INDEX IF NOT EXISTS idx_history_status ON listing_history(status);
	`)
	return err
}

// ArchiveRun batch-inserts the full reconciled set of one model for one run.
func (a *PostgresArchive) ArchiveRun(runID string, key models.ModelKey, set models.RecordSet) error {
	const batchSize = 50
	for i := 0; i < len(set); i += batchSize {
		end := i + batchSize
		if end > len(set) {
			end = len(set)
		}
		if err := a.insertBatch(runID, key, set[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (a *PostgresArchive) insertBatch(runID string, key models.ModelKey, batch models.RecordSet) error {
	if len(batch) == 0 {
		return nil
	}

	const cols = 17
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for c := 0; c < cols; c++ {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			runID, key.Brand, key.Model, r.Link, r.Title, r.Price, r.Year,
			r.Kilometers, r.Horsepower, r.Fuel, r.Gearbox, r.Color, r.Phone,
			r.ImageURL, string(r.Status), r.FirstSeen, r.LastUpdate)
	}

	query := fmt.Sprintf(`
		INSERT INTO listing_history (
			run_id, brand, model, link, title, price, year, kilometers,
			horsepower, fuel, gearbox, color, phone, image_url, status,
			first_seen, last_update
		)
		VALUES %s
		ON CONFLICT (run_id, link) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := a.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("archive: insert batch for %s: %w", key, err)
	}
	return nil
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
