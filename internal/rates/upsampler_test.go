package rates

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ternarybob/searadar/internal/models"
)

func weeklyFixture() []models.WeeklyRate {
	return []models.WeeklyRate{
		{Date: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), Price: 1000},
		{Date: time.Date(2023, 10, 8, 0, 0, 0, 0, time.UTC), Price: 1200},
	}
}

func TestUpsample_PointCountAndBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hourly := Upsample(weeklyFixture(), "Shanghai-Rotterdam", 0, rng)

	// 7 days spanned, boundary inclusive: 7*24 + 1 hourly points.
	if len(hourly) != 169 {
		t.Fatalf("got %d points, want 169", len(hourly))
	}

	first, last := hourly[0], hourly[len(hourly)-1]
	if !first.Timestamp.Equal(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first timestamp = %v, want 2023-10-01 00:00", first.Timestamp)
	}
	if !last.Timestamp.Equal(time.Date(2023, 10, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last timestamp = %v, want 2023-10-08 00:00", last.Timestamp)
	}
	if first.Price != 1000 || last.Price != 1200 {
		t.Errorf("anchor prices = %v, %v, want 1000, 1200", first.Price, last.Price)
	}
	for _, h := range hourly {
		if h.Route != "Shanghai-Rotterdam" {
			t.Fatalf("route = %q, want Shanghai-Rotterdam", h.Route)
		}
	}
}

func TestUpsample_LinearWithoutNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hourly := Upsample(weeklyFixture(), "r", 0, rng)

	// Each hour advances the price by (1200-1000)/168.
	step := 200.0 / 168.0
	for i, h := range hourly {
		want := math.Round((1000+step*float64(i))*100) / 100
		if math.Abs(h.Price-want) > 1e-9 {
			t.Fatalf("point %d: price = %v, want %v", i, h.Price, want)
		}
	}
}

func TestUpsample_MultiSegment(t *testing.T) {
	weekly := []models.WeeklyRate{
		{Date: time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC), Price: 1500},
		{Date: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), Price: 1000},
		{Date: time.Date(2023, 10, 8, 0, 0, 0, 0, time.UTC), Price: 1200},
	}
	rng := rand.New(rand.NewSource(1))
	hourly := Upsample(weekly, "r", 0, rng)

	if len(hourly) != 14*24+1 {
		t.Fatalf("got %d points, want %d", len(hourly), 14*24+1)
	}

	// Unsorted input still interpolates through the middle anchor.
	mid := hourly[7*24]
	if !mid.Timestamp.Equal(time.Date(2023, 10, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("mid timestamp = %v", mid.Timestamp)
	}
	if mid.Price != 1200 {
		t.Errorf("mid price = %v, want 1200", mid.Price)
	}
}

func TestUpsample_NoiseApplied(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	hourly := Upsample(weeklyFixture(), "r", 5, rng)

	step := 200.0 / 168.0
	var deviated int
	for i, h := range hourly {
		clean := 1000 + step*float64(i)
		if math.Abs(h.Price-clean) > 1e-9 {
			deviated++
		}
		if math.Abs(h.Price-clean) > 30 {
			t.Fatalf("point %d deviates %v from the trend, noise stddev is 5", i, h.Price-clean)
		}
	}
	if deviated < 160 {
		t.Errorf("only %d of %d points deviate from the clean trend", deviated, len(hourly))
	}
}

func TestUpsample_Degenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if got := Upsample(nil, "r", 0, rng); got != nil {
		t.Errorf("empty input: got %d points, want nil", len(got))
	}

	single := []models.WeeklyRate{{Date: time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), Price: 1000}}
	got := Upsample(single, "r", 0, rng)
	if len(got) != 1 || got[0].Price != 1000 {
		t.Errorf("single anchor: got %+v, want one 1000 point", got)
	}
}

func TestReadWeeklyCSV_MissingFile(t *testing.T) {
	_, err := ReadWeeklyCSV(filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestHourlyCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "hourly.csv")

	rng := rand.New(rand.NewSource(1))
	hourly := Upsample(weeklyFixture(), "Shanghai-Rotterdam", 0, rng)

	if err := WriteHourlyCSV(path, hourly); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadHourlyCSV(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(hourly) {
		t.Fatalf("got %d rows, want %d", len(got), len(hourly))
	}
	for i := range got {
		if !got[i].Timestamp.Equal(hourly[i].Timestamp) || got[i].Price != hourly[i].Price || got[i].Route != hourly[i].Route {
			t.Fatalf("row %d: got %+v, want %+v", i, got[i], hourly[i])
		}
	}
}

func TestReadWeeklyCSV_ParsesDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekly.csv")
	content := "Date,Price\n2023-10-01,1000\n2023-10-08,1200.5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	weekly, err := ReadWeeklyCSV(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(weekly) != 2 {
		t.Fatalf("got %d rows, want 2", len(weekly))
	}
	if weekly[1].Price != 1200.5 {
		t.Errorf("price = %v, want 1200.5", weekly[1].Price)
	}
	if !weekly[0].Date.Equal(time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", weekly[0].Date)
	}
}
