package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI page routes (HTML templates)
	mux.HandleFunc("/", s.app.PageHandler.ServePage("dashboard.html", "dashboard"))

	// Static files (CSS, JS)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// API routes - Dashboard data
	mux.HandleFunc("/api/gold", s.app.DashboardHandler.GoldHandler)
	mux.HandleFunc("/api/summary", s.app.DashboardHandler.SummaryHandler)

	// API routes - Pipeline
	mux.HandleFunc("/api/pipeline/run", s.app.PipelineHandler.TriggerRunHandler)
	mux.HandleFunc("/api/pipeline/runs", s.app.PipelineHandler.LastRunHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
