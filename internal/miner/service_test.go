package miner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/gdelt"
)

func minerConfig(t *testing.T, baseURL string) *common.GDELTConfig {
	t.Helper()
	return &common.GDELTConfig{
		BaseURL:        baseURL,
		Query:          `(Houthi OR "Red Sea") tone<-2`,
		CountryCode:    "YEM",
		MaxRecords:     250,
		StartDate:      "2023-10-19",
		EndDate:        "2023-10-21",
		RequestTimeout: "5s",
		RequestDelay:   "1ms",
		OutputCSV:      filepath.Join(t.TempDir(), "events.csv"),
	}
}

func TestService_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Query().Get("startdatetime"), "20231019"):
			w.Write([]byte("URL,Date,Tone\nhttp://a.example/1,20231019,-3.5\nhttp://a.example/2,20231019,-6\n"))
		case strings.HasPrefix(r.URL.Query().Get("startdatetime"), "20231020"):
			// Failed days are skipped, not fatal
			w.WriteHeader(http.StatusInternalServerError)
		default:
			// HTML body counts as an empty day
			w.Write([]byte("<html>no results</html>"))
		}
	}))
	defer server.Close()

	config := minerConfig(t, server.URL)
	client := gdelt.NewClient(config.Query,
		gdelt.WithBaseURL(server.URL),
		gdelt.WithRequestDelay(time.Millisecond),
	)
	service := NewService(config, client, common.GetLogger())

	summary, err := service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 1, summary.DaysMined)
	assert.Equal(t, 1, summary.DaysFailed)
	assert.Equal(t, 1, summary.DaysEmpty)

	events, err := ReadCSV(config.OutputCSV)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, StartSurrogateID, events[0].GlobalEventID)
	assert.Equal(t, StartSurrogateID+1, events[1].GlobalEventID)
	assert.Equal(t, "20231019", events[0].Day)
	assert.Equal(t, "YEM", events[0].Country)
	assert.Equal(t, -3.5, events[0].Tone)
	assert.Equal(t, "http://a.example/1", events[0].SourceURL)
}

func TestService_Run_InvalidWindow(t *testing.T) {
	config := minerConfig(t, "http://unused.invalid")
	config.StartDate = "not-a-date"

	client := gdelt.NewClient(config.Query, gdelt.WithRequestDelay(time.Millisecond))
	service := NewService(config, client, common.GetLogger())

	_, err := service.Run(context.Background())
	require.Error(t, err)
}

func TestReadCSV_HeaderValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Wrong,Header\n1,2\n"), 0644))

	_, err := ReadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
