// Package analytics computes the dashboard's derived metrics over gold
// rows: date-window filtering, summary KPIs and the price/risk correlation.
package analytics

import (
	"math"
	"time"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
)

// Summary holds the dashboard's three headline metrics for a filtered
// window. Correlation is nil when fewer than two points remain or the
// series has no variance.
type Summary struct {
	PeakPrice   float64  `json:"peak_price"`
	TotalEvents int      `json:"total_events"`
	Correlation *float64 `json:"correlation"`
	Points      int      `json:"points"`
}

// DataBounds returns the min/max calendar dates present in the rows.
func DataBounds(rows []models.GoldRow) (min, max time.Time, ok bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = rows[0].FullDate, rows[0].FullDate
	for _, r := range rows[1:] {
		if r.FullDate.Before(min) {
			min = r.FullDate
		}
		if r.FullDate.After(max) {
			max = r.FullDate
		}
	}
	return truncateDay(min), truncateDay(max), true
}

// ClampWindow clamps a requested window to the data bounds. A zero window
// bound falls back to the corresponding data bound.
func ClampWindow(window common.DateWindow, min, max time.Time) common.DateWindow {
	start, end := window.Start, window.End
	if start.IsZero() || start.Before(min) {
		start = min
	}
	if end.IsZero() || end.After(max) {
		end = max
	}
	return common.DateWindow{Start: start, End: end}
}

// FilterByDateRange keeps rows whose calendar date falls inside the
// inclusive window.
func FilterByDateRange(rows []models.GoldRow, window common.DateWindow) []models.GoldRow {
	var filtered []models.GoldRow
	for _, r := range rows {
		day := truncateDay(r.FullDate)
		if day.Before(window.Start) || day.After(window.End) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// Summarize computes the headline metrics over a filtered window: peak
// price, total event count and the Pearson correlation between price and
// risk score.
func Summarize(rows []models.GoldRow) Summary {
	s := Summary{Points: len(rows)}
	prices := make([]float64, len(rows))
	risks := make([]float64, len(rows))
	for i, r := range rows {
		prices[i] = r.Price
		risks[i] = r.RiskScore()
		if r.Price > s.PeakPrice {
			s.PeakPrice = r.Price
		}
		s.TotalEvents += r.NewsCount
	}
	if corr, ok := Pearson(prices, risks); ok {
		s.Correlation = &corr
	}
	return s
}

// Pearson computes the Pearson correlation coefficient of two equal-length
// series. Returns false with fewer than two points, mismatched lengths or
// zero variance in either series.
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
