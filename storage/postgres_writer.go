package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"housing-ranker/models"
	"housing-ranker/utils"
)

const listingColumnsPerRow = 15

// PostgresWriter persists scoring runs and their scored listings to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS scoring_runs (
			run_id        UUID PRIMARY KEY,
			started_at    TIMESTAMPTZ   NOT NULL,
			variant       VARCHAR(20)   NOT NULL,
			exchange_rate NUMERIC(8,4)  NOT NULL,
			scored        INTEGER       NOT NULL DEFAULT 0,
			valid         INTEGER       NOT NULL DEFAULT 0,
			unresolved    INTEGER       NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS scored_listings (
			id              SERIAL PRIMARY KEY,
			run_id          UUID          NOT NULL REFERENCES scoring_runs(run_id) ON DELETE CASCADE,
			position        INTEGER       NOT NULL,
			title           TEXT          NOT NULL DEFAULT '',
			location        TEXT          NOT NULL DEFAULT '',
			district        VARCHAR(64),
			district_status VARCHAR(16)   NOT NULL,
			price_clean     NUMERIC(14,2),
			area_clean      NUMERIC(10,2),
			bedrooms        INTEGER       NOT NULL,
			bathrooms       INTEGER       NOT NULL,
			cost_score      NUMERIC(4,2)  NOT NULL,
			safety_score    NUMERIC(4,2)  NOT NULL,
			services_score  NUMERIC(4,2)  NOT NULL,
			final_score     NUMERIC(4,2)  NOT NULL,
			url             TEXT          NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_scored_listings_run      ON scored_listings(run_id);
		CREATE INDEX IF NOT EXISTS idx_scored_listings_district ON scored_listings(district);
		CREATE INDEX IF NOT EXISTS idx_scored_listings_final    ON scored_listings(final_score);
	`)
	return err
}

// Write stores the run row and batch-inserts its scored listings in rank order,
// all in one transaction.
func (pw *PostgresWriter) Write(result *models.RunResult) error {
	ctx := context.Background()
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	s := result.Summary
	if s == nil {
		s = models.NewRunSummary(result.RunID)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scoring_runs (run_id, started_at, variant, exchange_rate, scored, valid, unresolved)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, result.RunID, s.StartedAt, s.Variant, s.ExchangeRate, len(result.All), len(result.Valid), s.UnresolvedListings); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(result.All); i += batchSize {
		end := min(i+batchSize, len(result.All))
		query, args := buildListingInsert(result.RunID, i, result.All[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert listings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// buildListingInsert builds one multi-row INSERT. offset is the rank of the
// first listing in batch minus one.
func buildListingInsert(runID string, offset int, batch []*models.ScoredListing) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumnsPerRow)

	for idx, l := range batch {
		base := idx * listingColumnsPerRow
		placeholders := make([]string, listingColumnsPerRow)
		for k := range placeholders {
			placeholders[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		rec := l.ToOutput()
		valueArgs = append(valueArgs,
			runID, offset+idx+1, rec.Title, rec.Location, nullString(rec.District), rec.DistrictStatus,
			nullFloat(rec.PriceClean), nullFloat(rec.AreaClean), rec.BedroomClean, rec.BathroomClean,
			rec.CostScore, rec.SafetyScore, rec.ServicesScore, rec.FinalScore, rec.URL)
	}

	query := fmt.Sprintf(`
		INSERT INTO scored_listings (run_id, position, title, location, district, district_status,
			price_clean, area_clean, bedrooms, bathrooms,
			cost_score, safety_score, services_score, final_score, url)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// FetchRun retrieves a stored run's listings in rank order.
func (pw *PostgresWriter) FetchRun(runID string) ([]models.OutputRecord, error) {
	rows, err := pw.db.Query(`
		SELECT title, location, district, district_status, price_clean, area_clean,
			bedrooms, bathrooms, cost_score, safety_score, services_score, final_score, url
		FROM scored_listings
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch run: %w", err)
	}
	defer rows.Close()

	var out []models.OutputRecord
	for rows.Next() {
		var rec models.OutputRecord
		var district sql.NullString
		var price, area sql.NullFloat64
		if err := rows.Scan(
			&rec.Title, &rec.Location, &district, &rec.DistrictStatus, &price, &area,
			&rec.BedroomClean, &rec.BathroomClean, &rec.CostScore, &rec.SafetyScore,
			&rec.ServicesScore, &rec.FinalScore, &rec.URL,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if district.Valid {
			rec.District = &district.String
		}
		if price.Valid {
			rec.PriceClean = &price.Float64
		}
		if area.Valid {
			rec.AreaClean = &area.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
