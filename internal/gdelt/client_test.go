package gdelt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchDayCSV(t *testing.T) {
	var gotQuery url.Values
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("URL,Date,Tone\nhttp://a.example/1,20231019,-3\n"))
	}))
	defer server.Close()

	client := NewClient("(shipping OR trade)",
		WithBaseURL(server.URL),
		WithMaxRecords(100),
		WithRequestDelay(time.Millisecond),
	)

	day := time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC)
	body, err := client.FetchDayCSV(context.Background(), day)
	require.NoError(t, err)
	assert.Contains(t, body, "http://a.example/1")

	assert.Equal(t, "(shipping OR trade)", gotQuery.Get("query"))
	assert.Equal(t, "artlist", gotQuery.Get("mode"))
	assert.Equal(t, "csv", gotQuery.Get("format"))
	assert.Equal(t, "100", gotQuery.Get("maxrecords"))
	assert.Equal(t, "20231019000000", gotQuery.Get("startdatetime"))
	assert.Equal(t, "20231019235959", gotQuery.Get("enddatetime"))
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestClient_FetchDayCSV_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limit exceeded"))
	}))
	defer server.Close()

	client := NewClient("test", WithBaseURL(server.URL), WithRequestDelay(time.Millisecond))

	_, err := client.FetchDayCSV(context.Background(), time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "2023-10-19", apiErr.Day)
	assert.Contains(t, apiErr.Error(), "429")
}

func TestClient_FetchDayCSV_ContextCancelled(t *testing.T) {
	client := NewClient("test", WithRequestDelay(time.Hour))

	// First request consumes the limiter's burst token.
	_ = client.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.FetchDayCSV(ctx, time.Date(2023, 10, 19, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}
