package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/models"
)

// PipelineRunner triggers pipeline runs and reports the last run.
type PipelineRunner interface {
	Run(ctx context.Context) *models.PipelineRun
	LastRun() *models.PipelineRun
}

// PipelineHandler exposes the orchestrator over the API.
type PipelineHandler struct {
	runner    PipelineRunner
	dashboard *DashboardHandler
	logger    arbor.ILogger
}

// NewPipelineHandler creates a pipeline handler. The dashboard handler is
// optional; when present its session cache is invalidated after each run.
func NewPipelineHandler(runner PipelineRunner, dashboard *DashboardHandler, logger arbor.ILogger) *PipelineHandler {
	return &PipelineHandler{
		runner:    runner,
		dashboard: dashboard,
		logger:    logger,
	}
}

// TriggerRunHandler starts a pipeline run in the background.
func (h *PipelineHandler) TriggerRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	common.SafeGo(h.logger, "pipelineRun", func() {
		run := h.runner.Run(context.Background())
		if h.dashboard != nil && !run.Failed() {
			h.dashboard.InvalidateCache()
		}
	})

	WriteStarted(w, "pipeline run started")
}

// LastRunHandler returns the most recent run record.
func (h *PipelineHandler) LastRunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	run := h.runner.LastRun()
	if run == nil {
		WriteError(w, http.StatusNotFound, "no pipeline run recorded")
		return
	}
	WriteJSON(w, http.StatusOK, run)
}
