package handlers

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/analytics"
	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
)

// GoldSource reads the gold analytics table ordered by date.
type GoldSource interface {
	QueryGold(ctx context.Context) ([]models.GoldRow, error)
}

// DashboardHandler serves the dashboard's data API. The gold table is
// fetched once per server session and cached; a failed fetch is surfaced
// to the client as an error payload and retried only on the next request.
type DashboardHandler struct {
	source GoldSource
	config *common.DashboardConfig
	logger arbor.ILogger

	mu     sync.Mutex
	cached []models.GoldRow
	loaded bool
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(source GoldSource, config *common.DashboardConfig, logger arbor.ILogger) *DashboardHandler {
	return &DashboardHandler{
		source: source,
		config: config,
		logger: logger,
	}
}

type goldRowResponse struct {
	FullDate         time.Time `json:"full_date"`
	Price            float64   `json:"price"`
	NewsCount        int       `json:"news_count"`
	AvgConflictScore float64   `json:"avg_conflict_score"`
	RiskScore        float64   `json:"risk_score"`
}

type windowResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type boundsResponse struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// GoldHandler returns the filtered gold rows with derived risk scores,
// plus the effective window and the data bounds for the date picker.
func (h *DashboardHandler) GoldHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	rows, window, bounds, ok := h.filtered(w, r)
	if !ok {
		return
	}

	resp := make([]goldRowResponse, len(rows))
	for i, row := range rows {
		resp[i] = goldRowResponse{
			FullDate:         row.FullDate,
			Price:            round2(row.Price),
			NewsCount:        row.NewsCount,
			AvgConflictScore: round2(row.AvgConflictScore),
			RiskScore:        round2(row.RiskScore()),
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rows":   resp,
		"window": window,
		"bounds": bounds,
	})
}

// SummaryHandler returns the three headline metrics for the filtered
// window. Correlation is null when fewer than two points remain.
func (h *DashboardHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	rows, window, _, ok := h.filtered(w, r)
	if !ok {
		return
	}

	summary := analytics.Summarize(rows)
	summary.PeakPrice = round2(summary.PeakPrice)
	if summary.Correlation != nil {
		rounded := round2(*summary.Correlation)
		summary.Correlation = &rounded
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"window":  window,
	})
}

// filtered loads (or reuses) the session cache, resolves the requested
// window against the data bounds and returns the filtered rows. On any
// failure it writes the error payload and returns ok=false.
func (h *DashboardHandler) filtered(w http.ResponseWriter, r *http.Request) ([]models.GoldRow, windowResponse, boundsResponse, bool) {
	all, err := h.load(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Gold table query failed")
		WriteError(w, http.StatusServiceUnavailable, "database connection error: "+err.Error())
		return nil, windowResponse{}, boundsResponse{}, false
	}

	min, max, ok := analytics.DataBounds(all)
	if !ok {
		WriteError(w, http.StatusNotFound, "no data loaded; run the pipeline first")
		return nil, windowResponse{}, boundsResponse{}, false
	}

	window, err := h.requestedWindow(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return nil, windowResponse{}, boundsResponse{}, false
	}
	window = analytics.ClampWindow(window, min, max)

	rows := analytics.FilterByDateRange(all, window)

	windowResp := windowResponse{
		Start: window.Start.Format("2006-01-02"),
		End:   window.End.Format("2006-01-02"),
	}
	boundsResp := boundsResponse{
		Min: min.Format("2006-01-02"),
		Max: max.Format("2006-01-02"),
	}
	return rows, windowResp, boundsResp, true
}

// requestedWindow parses start/end query parameters, falling back to the
// configured default window.
func (h *DashboardHandler) requestedWindow(r *http.Request) (common.DateWindow, error) {
	window, err := h.config.DefaultWindow()
	if err != nil {
		return common.DateWindow{}, err
	}

	if s := r.URL.Query().Get("start"); s != "" {
		start, err := time.Parse("2006-01-02", s)
		if err != nil {
			return common.DateWindow{}, err
		}
		window.Start = start
	}
	if e := r.URL.Query().Get("end"); e != "" {
		end, err := time.Parse("2006-01-02", e)
		if err != nil {
			return common.DateWindow{}, err
		}
		window.End = end
	}
	return window, nil
}

func (h *DashboardHandler) load(ctx context.Context) ([]models.GoldRow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loaded {
		return h.cached, nil
	}

	rows, err := h.source.QueryGold(ctx)
	if err != nil {
		return nil, err
	}

	h.cached = rows
	h.loaded = true
	h.logger.Info().Int("rows", len(rows)).Msg("Gold table cached for session")
	return rows, nil
}

// InvalidateCache drops the session cache so the next request refetches,
// used after a pipeline run rewrites the gold table.
func (h *DashboardHandler) InvalidateCache() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cached = nil
	h.loaded = false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
