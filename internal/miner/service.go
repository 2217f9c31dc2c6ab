// Package miner implements the event mining stage: one GDELT query per
// calendar day over a fixed historical window, normalized into a flat CSV.
package miner

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/gdelt"
)

// StartSurrogateID is the first GlobalEventID assigned per run. The feed's
// own event IDs are not available in artlist mode, so rows get a
// monotonically increasing surrogate instead.
const StartSurrogateID = 100000

var csvHeader = []string{"GlobalEventID", "Day", "Country", "Tone", "SourceURL"}

// Summary reports what one mining run produced.
type Summary struct {
	Rows       int
	DaysMined  int
	DaysEmpty  int
	DaysFailed int
	OutputPath string
}

// Service runs the day-by-day mining loop. Each run regenerates the output
// CSV from scratch; there is no resumption or cross-run deduplication.
type Service struct {
	client *gdelt.Client
	config *common.GDELTConfig
	logger arbor.ILogger
	rng    *rand.Rand
}

// NewService creates a miner service.
func NewService(config *common.GDELTConfig, client *gdelt.Client, logger arbor.ILogger) *Service {
	return &Service{
		client: client,
		config: config,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run mines the configured window day by day and writes the output CSV.
// A failed day is logged and skipped; only setup and output errors abort
// the run.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	summary := Summary{OutputPath: s.config.OutputCSV}

	window, err := s.config.Window()
	if err != nil {
		return summary, err
	}

	if err := os.MkdirAll(filepath.Dir(s.config.OutputCSV), 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(s.config.OutputCSV)
	if err != nil {
		return summary, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(csvHeader); err != nil {
		return summary, fmt.Errorf("failed to write CSV header: %w", err)
	}

	s.logger.Info().
		Str("start", window.Start.Format("2006-01-02")).
		Str("end", window.End.Format("2006-01-02")).
		Str("output", s.config.OutputCSV).
		Msg("Mining GDELT window")

	nextID := StartSurrogateID
	for day := window.Start; !day.After(window.End); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		csvText, err := s.client.FetchDayCSV(ctx, day)
		if err != nil {
			// Per-day failures never abort the run
			s.logger.Warn().
				Err(err).
				Str("day", day.Format("2006-01-02")).
				Msg("Day fetch failed, skipping")
			summary.DaysFailed++
			continue
		}

		if !gdelt.LooksLikeArticleCSV(csvText) {
			s.logger.Debug().
				Str("day", day.Format("2006-01-02")).
				Msg("No data (HTML or empty response)")
			summary.DaysEmpty++
			continue
		}

		articles, stats, err := gdelt.ParseArticleList(csvText, s.fallbackTone)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("day", day.Format("2006-01-02")).
				Msg("Response parse failed, skipping day")
			summary.DaysFailed++
			continue
		}

		for _, article := range articles {
			row := []string{
				strconv.Itoa(nextID),
				article.Day,
				s.config.CountryCode,
				strconv.FormatFloat(article.Tone, 'f', -1, 64),
				article.URL,
			}
			if err := writer.Write(row); err != nil {
				return summary, fmt.Errorf("failed to write row: %w", err)
			}
			nextID++
		}

		summary.Rows += stats.Accepted
		summary.DaysMined++

		s.logger.Debug().
			Str("day", day.Format("2006-01-02")).
			Int("articles", stats.Accepted).
			Int("tone_fallbacks", stats.ToneFallbacks).
			Msg("Day parsed")
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return summary, fmt.Errorf("failed to flush output: %w", err)
	}

	s.logger.Info().
		Int("rows", summary.Rows).
		Int("days_mined", summary.DaysMined).
		Int("days_empty", summary.DaysEmpty).
		Int("days_failed", summary.DaysFailed).
		Msg("Mining finished")

	return summary, nil
}

func (s *Service) fallbackTone() float64 {
	return gdelt.FallbackTone(s.rng)
}
