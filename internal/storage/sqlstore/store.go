// Package sqlstore persists the staging rates and gold analytics tables in
// Postgres. Both tables use full-replace semantics: drop, recreate, insert.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/models"
)

const (
	// StagingTable holds raw upsampled hourly rates before the join.
	StagingTable = "staging_rates"

	// GoldTable holds the joined analytics rows consumed by the dashboard.
	GoldTable = "gold_analytics_red_sea"
)

// Store wraps the relational connection.
type Store struct {
	conn   *sql.DB
	logger arbor.ILogger
}

// Open opens a Postgres connection and verifies it with a ping.
func Open(dsn string, logger arbor.ILogger) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Store{conn: conn, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// ReplaceRates drops and recreates the staging table, then inserts the
// batch row by row with parameterized statements.
func (s *Store) ReplaceRates(ctx context.Context, rates []models.HourlyRate) (int, error) {
	if _, err := s.conn.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, StagingTable)); err != nil {
		return 0, fmt.Errorf("failed to drop staging table: %w", err)
	}
	createStmt := fmt.Sprintf(`
		CREATE TABLE %s (
			date TIMESTAMP NOT NULL,
			route TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL
		)`, StagingTable)
	if _, err := s.conn.ExecContext(ctx, createStmt); err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	insert, err := s.conn.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (date, route, price) VALUES ($1, $2, $3)`, StagingTable))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare staging insert: %w", err)
	}
	defer insert.Close()

	for i, r := range rates {
		if _, err := insert.ExecContext(ctx, r.Timestamp, r.Route, r.Price); err != nil {
			return i, fmt.Errorf("failed to insert staging row %d: %w", i, err)
		}
	}

	return len(rates), nil
}

// LoadRates reads the whole staging table back.
func (s *Store) LoadRates(ctx context.Context) ([]models.HourlyRate, error) {
	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT date, route, price FROM %s ORDER BY date ASC`, StagingTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query staging table: %w", err)
	}
	defer rows.Close()

	var rates []models.HourlyRate
	for rows.Next() {
		var r models.HourlyRate
		if err := rows.Scan(&r.Timestamp, &r.Route, &r.Price); err != nil {
			return nil, fmt.Errorf("failed to scan staging row: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// OverwriteGold drops and recreates the gold table with the joined rows.
func (s *Store) OverwriteGold(ctx context.Context, rows []models.GoldRow) (int, error) {
	if _, err := s.conn.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, GoldTable)); err != nil {
		return 0, fmt.Errorf("failed to drop gold table: %w", err)
	}
	createStmt := fmt.Sprintf(`
		CREATE TABLE %s (
			full_date TIMESTAMP NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			news_count INTEGER NOT NULL,
			avg_conflict_score DOUBLE PRECISION NOT NULL
		)`, GoldTable)
	if _, err := s.conn.ExecContext(ctx, createStmt); err != nil {
		return 0, fmt.Errorf("failed to create gold table: %w", err)
	}

	insert, err := s.conn.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (full_date, price, news_count, avg_conflict_score) VALUES ($1, $2, $3, $4)`, GoldTable))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare gold insert: %w", err)
	}
	defer insert.Close()

	for i, row := range rows {
		if _, err := insert.ExecContext(ctx, row.FullDate, row.Price, row.NewsCount, row.AvgConflictScore); err != nil {
			return i, fmt.Errorf("failed to insert gold row %d: %w", i, err)
		}
	}

	return len(rows), nil
}

// QueryGold reads the gold table ordered by date, the dashboard's read path.
func (s *Store) QueryGold(ctx context.Context) ([]models.GoldRow, error) {
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT full_date, price, news_count, avg_conflict_score FROM %s ORDER BY full_date ASC`, GoldTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query gold table: %w", err)
	}
	defer rows.Close()

	var gold []models.GoldRow
	for rows.Next() {
		var g models.GoldRow
		if err := rows.Scan(&g.FullDate, &g.Price, &g.NewsCount, &g.AvgConflictScore); err != nil {
			return nil, fmt.Errorf("failed to scan gold row: %w", err)
		}
		gold = append(gold, g)
	}
	return gold, rows.Err()
}
