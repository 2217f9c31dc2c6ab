// Package transform implements the read-join-write stage: daily aggregation
// of news events, an inner join of hourly rates to daily aggregates on
// truncated calendar date, and the gold table overwrite.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/searadar/internal/models"
)

// NoMatchMessage is reported when the join produces no rows; the gold table
// is left untouched in that case.
const NoMatchMessage = "no matching dates found between news and rates"

// DailyAggregate is one calendar day's news rollup.
type DailyAggregate struct {
	Date             time.Time
	NewsCount        int
	AvgConflictScore float64
}

// EventSource loads mined news events from the document store.
type EventSource interface {
	LoadEvents(ctx context.Context) ([]models.NewsEvent, error)
}

// RateSource loads staged hourly rates from the relational store.
type RateSource interface {
	LoadRates(ctx context.Context) ([]models.HourlyRate, error)
}

// GoldSink overwrites the gold analytics table.
type GoldSink interface {
	OverwriteGold(ctx context.Context, rows []models.GoldRow) (int, error)
}

// dateKey truncates a timestamp to its calendar date in UTC, the join key.
func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateNews groups events by calendar day, counting records and
// averaging conflict intensity (sign-inverted tone, higher = worse).
// The raw Day field is reduced to its leading 8 characters before parsing,
// tolerating trailing timestamp fragments; unparseable days are dropped.
func AggregateNews(events []models.NewsEvent) map[time.Time]DailyAggregate {
	type acc struct {
		count int
		sum   float64
	}
	byDay := make(map[time.Time]*acc)

	for _, e := range events {
		dayStr := e.Day
		if len(dayStr) > 8 {
			dayStr = dayStr[:8]
		}
		date, err := time.ParseInLocation("20060102", dayStr, time.UTC)
		if err != nil {
			continue
		}

		a := byDay[date]
		if a == nil {
			a = &acc{}
			byDay[date] = a
		}
		a.count++
		a.sum += -e.Tone // conflict intensity
	}

	daily := make(map[time.Time]DailyAggregate, len(byDay))
	for date, a := range byDay {
		daily[date] = DailyAggregate{
			Date:             date,
			NewsCount:        a.count,
			AvgConflictScore: a.sum / float64(a.count),
		}
	}
	return daily
}

// Join inner-joins hourly rates to daily news aggregates on the rate
// timestamp truncated to its calendar date. Rate hours with no matching
// news day, and news days with no rate hours, produce nothing. The result
// is ordered by timestamp.
func Join(rates []models.HourlyRate, daily map[time.Time]DailyAggregate) []models.GoldRow {
	var rows []models.GoldRow
	for _, r := range rates {
		agg, ok := daily[dateKey(r.Timestamp)]
		if !ok {
			continue
		}
		rows = append(rows, models.GoldRow{
			FullDate:         r.Timestamp,
			Price:            r.Price,
			NewsCount:        agg.NewsCount,
			AvgConflictScore: agg.AvgConflictScore,
		})
	}
	return rows
}

// Runner wires the transform against its stores.
type Runner struct {
	events EventSource
	rates  RateSource
	gold   GoldSink
	logger arbor.ILogger
}

// NewRunner creates a transform runner.
func NewRunner(events EventSource, rates RateSource, gold GoldSink, logger arbor.ILogger) *Runner {
	return &Runner{events: events, rates: rates, gold: gold, logger: logger}
}

// Run executes the full read-aggregate-join-write plan. The result message
// reports either the row count written or the empty-join outcome. The plan
// is deterministic: rerunning it over stable source tables rewrites an
// identical gold table.
func (r *Runner) Run(ctx context.Context) (string, error) {
	events, err := r.events.LoadEvents(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load news events: %w", err)
	}
	rates, err := r.rates.LoadRates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load staged rates: %w", err)
	}

	daily := AggregateNews(events)
	joined := Join(rates, daily)

	r.logger.Debug().
		Int("events", len(events)).
		Int("news_days", len(daily)).
		Int("rate_hours", len(rates)).
		Int("joined", len(joined)).
		Msg("Transform plan evaluated")

	if len(joined) == 0 {
		return NoMatchMessage, nil
	}

	written, err := r.gold.OverwriteGold(ctx, joined)
	if err != nil {
		return "", fmt.Errorf("failed to write gold table: %w", err)
	}

	return fmt.Sprintf("saved %d rows (hourly rates + news)", written), nil
}
