// Package rates implements the rate upsampling stage: a sparse weekly price
// series expanded into a contiguous hourly series by linear interpolation
// with injected noise.
package rates

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
)

const timestampFormat = "2006-01-02 15:04:05"

// Upsample expands a weekly series into a contiguous hourly series spanning
// its min/max anchors, boundary inclusive. Every point lies on the linear
// segment between its bounding anchors; noise drawn from Normal(0, stddev)
// is then added to the whole series (anchor points included) and values are
// rounded to two decimals. No extrapolation beyond the series' span.
func Upsample(weekly []models.WeeklyRate, route string, noiseStddev float64, rng *rand.Rand) []models.HourlyRate {
	if len(weekly) == 0 {
		return nil
	}

	anchors := make([]models.WeeklyRate, len(weekly))
	copy(anchors, weekly)
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Date.Before(anchors[j].Date) })

	var hourly []models.HourlyRate
	seg := 0
	for ts := anchors[0].Date; !ts.After(anchors[len(anchors)-1].Date); ts = ts.Add(time.Hour) {
		for seg < len(anchors)-2 && ts.After(anchors[seg+1].Date) {
			seg++
		}

		price := anchors[seg].Price
		if len(anchors) > 1 {
			a, b := anchors[seg], anchors[seg+1]
			span := b.Date.Sub(a.Date)
			if span > 0 {
				frac := float64(ts.Sub(a.Date)) / float64(span)
				price = a.Price + (b.Price-a.Price)*frac
			}
		}

		if noiseStddev > 0 {
			price += rng.NormFloat64() * noiseStddev
		}

		hourly = append(hourly, models.HourlyRate{
			Timestamp: ts,
			Price:     round2(price),
			Route:     route,
		})
	}

	return hourly
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ReadWeeklyCSV reads the source weekly series ([Date, Price], header row).
func ReadWeeklyCSV(path string) ([]models.WeeklyRate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weekly rates file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read weekly rates CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("weekly rates CSV %s has no data rows", path)
	}

	weekly := make([]models.WeeklyRate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("weekly rates CSV row %d: expected 2 columns, got %d", i+2, len(row))
		}
		date, err := parseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("weekly rates CSV row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("weekly rates CSV row %d: invalid price %q: %w", i+2, row[1], err)
		}
		weekly = append(weekly, models.WeeklyRate{Date: date, Price: price})
	}

	return weekly, nil
}

// WriteHourlyCSV writes the upsampled series as [Date, Price, Route].
func WriteHourlyCSV(path string, hourly []models.HourlyRate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"Date", "Price", "Route"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, h := range hourly {
		row := []string{
			h.Timestamp.Format(timestampFormat),
			strconv.FormatFloat(h.Price, 'f', 2, 64),
			h.Route,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadHourlyCSV reads an upsampled series back ([Date, Price, Route]).
func ReadHourlyCSV(path string) ([]models.HourlyRate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hourly rates file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read hourly rates CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	hourly := make([]models.HourlyRate, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 3 {
			return nil, fmt.Errorf("hourly rates CSV row %d: expected 3 columns, got %d", i+2, len(row))
		}
		ts, err := parseDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("hourly rates CSV row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("hourly rates CSV row %d: invalid price %q: %w", i+2, row[1], err)
		}
		hourly = append(hourly, models.HourlyRate{Timestamp: ts, Price: price, Route: row[2]})
	}

	return hourly, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{timestampFormat, "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Service runs the upsampling stage end to end.
type Service struct {
	config *common.RatesConfig
	logger arbor.ILogger
	rng    *rand.Rand
}

// NewService creates an upsampler service.
func NewService(config *common.RatesConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run reads the weekly series, upsamples it and writes the hourly CSV.
// A missing input file is a hard error; the caller terminates on it.
func (s *Service) Run() error {
	weekly, err := ReadWeeklyCSV(s.config.InputCSV)
	if err != nil {
		return err
	}

	hourly := Upsample(weekly, s.config.Route, s.config.NoiseStddev, s.rng)

	if err := WriteHourlyCSV(s.config.OutputCSV, hourly); err != nil {
		return err
	}

	s.logger.Info().
		Int("weekly_rows", len(weekly)).
		Int("hourly_rows", len(hourly)).
		Str("output", s.config.OutputCSV).
		Msg("Upsampling finished")

	return nil
}
