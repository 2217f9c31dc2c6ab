package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name   string
		xs     []float64
		ys     []float64
		want   float64
		wantOK bool
	}{
		{name: "perfect positive", xs: []float64{1, 2, 3}, ys: []float64{2, 4, 6}, want: 1, wantOK: true},
		{name: "perfect negative", xs: []float64{1, 2, 3}, ys: []float64{6, 4, 2}, want: -1, wantOK: true},
		{name: "single point", xs: []float64{1}, ys: []float64{2}, wantOK: false},
		{name: "empty", xs: nil, ys: nil, wantOK: false},
		{name: "length mismatch", xs: []float64{1, 2}, ys: []float64{1}, wantOK: false},
		{name: "zero variance x", xs: []float64{5, 5, 5}, ys: []float64{1, 2, 3}, wantOK: false},
		{name: "zero variance y", xs: []float64{1, 2, 3}, ys: []float64{9, 9, 9}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Pearson(tt.xs, tt.ys)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("r = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDataBounds(t *testing.T) {
	rows := []models.GoldRow{
		{FullDate: time.Date(2023, 11, 3, 14, 0, 0, 0, time.UTC)},
		{FullDate: time.Date(2023, 10, 19, 23, 0, 0, 0, time.UTC)},
		{FullDate: time.Date(2024, 2, 8, 1, 0, 0, 0, time.UTC)},
	}

	min, max, ok := DataBounds(rows)
	if !ok {
		t.Fatal("ok = false for non-empty rows")
	}
	if !min.Equal(day(2023, 10, 19)) {
		t.Errorf("min = %v, want 2023-10-19", min)
	}
	if !max.Equal(day(2024, 2, 8)) {
		t.Errorf("max = %v, want 2024-02-08", max)
	}

	if _, _, ok := DataBounds(nil); ok {
		t.Error("ok = true for empty rows")
	}
}

func TestClampWindow(t *testing.T) {
	min, max := day(2023, 10, 19), day(2024, 2, 8)

	tests := []struct {
		name      string
		window    common.DateWindow
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "inside bounds untouched",
			window:    common.DateWindow{Start: day(2023, 11, 15), End: day(2024, 1, 31)},
			wantStart: day(2023, 11, 15),
			wantEnd:   day(2024, 1, 31),
		},
		{
			name:      "both outside clamp to bounds",
			window:    common.DateWindow{Start: day(2023, 1, 1), End: day(2024, 12, 31)},
			wantStart: min,
			wantEnd:   max,
		},
		{
			name:      "zero window falls back to bounds",
			window:    common.DateWindow{},
			wantStart: min,
			wantEnd:   max,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampWindow(tt.window, min, max)
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("got [%v, %v], want [%v, %v]", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestFilterByDateRange(t *testing.T) {
	rows := []models.GoldRow{
		{FullDate: time.Date(2023, 10, 18, 9, 0, 0, 0, time.UTC)},
		{FullDate: time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC)},
		{FullDate: time.Date(2023, 10, 20, 23, 0, 0, 0, time.UTC)},
		{FullDate: time.Date(2023, 10, 21, 0, 0, 0, 0, time.UTC)},
	}

	got := FilterByDateRange(rows, common.DateWindow{Start: day(2023, 10, 19), End: day(2023, 10, 20)})
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	// Window bounds are inclusive by calendar day, so the 23:00 row on the
	// end date survives.
	if got[0].FullDate.Day() != 19 || got[1].FullDate.Day() != 20 {
		t.Errorf("wrong rows kept: %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	rows := []models.GoldRow{
		{FullDate: day(2023, 10, 19), Price: 1000, NewsCount: 2, AvgConflictScore: 3},
		{FullDate: day(2023, 10, 20), Price: 1500, NewsCount: 5, AvgConflictScore: 4},
		{FullDate: day(2023, 10, 21), Price: 1200, NewsCount: 1, AvgConflictScore: 2},
	}

	s := Summarize(rows)
	if s.PeakPrice != 1500 {
		t.Errorf("peak = %v, want 1500", s.PeakPrice)
	}
	if s.TotalEvents != 8 {
		t.Errorf("total events = %d, want 8", s.TotalEvents)
	}
	if s.Points != 3 {
		t.Errorf("points = %d, want 3", s.Points)
	}
	if s.Correlation == nil {
		t.Fatal("correlation nil for varying series")
	}
	if *s.Correlation < -1 || *s.Correlation > 1 {
		t.Errorf("correlation %v outside [-1, 1]", *s.Correlation)
	}
}

func TestSummarize_NoCorrelation(t *testing.T) {
	s := Summarize([]models.GoldRow{
		{FullDate: day(2023, 10, 19), Price: 1000, NewsCount: 2, AvgConflictScore: 3},
	})
	if s.Correlation != nil {
		t.Errorf("correlation = %v, want nil for a single point", *s.Correlation)
	}

	s = Summarize(nil)
	if s.Points != 0 || s.Correlation != nil || s.PeakPrice != 0 {
		t.Errorf("empty rows: %+v", s)
	}
}
