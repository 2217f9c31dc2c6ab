// Package app wires configuration, stores, pipeline and handlers together.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/handlers"
	"github.com/ternarybob/searadar/internal/pipeline"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Orchestrator *pipeline.Orchestrator
	Scheduler    *pipeline.Scheduler

	PageHandler      *handlers.PageHandler
	DashboardHandler *handlers.DashboardHandler
	PipelineHandler  *handlers.PipelineHandler
	APIHandler       *handlers.APIHandler
}

// New creates the application. Store connections are opened lazily inside
// pipeline steps and dashboard queries, so startup never depends on the
// external stores being reachable.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	a.Orchestrator = NewOrchestrator(config, logger)

	if config.Pipeline.Schedule != "" {
		scheduler, err := pipeline.NewScheduler(config.Pipeline.Schedule, a.Orchestrator, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline scheduler: %w", err)
		}
		a.Scheduler = scheduler
	}

	goldSource := &lazyGoldSource{config: &config.Postgres, logger: logger}

	a.PageHandler = handlers.NewPageHandler(logger)
	a.DashboardHandler = handlers.NewDashboardHandler(goldSource, &config.Dashboard, logger)
	a.PipelineHandler = handlers.NewPipelineHandler(a.Orchestrator, a.DashboardHandler, logger)
	a.APIHandler = handlers.NewAPIHandler()

	return a, nil
}

// NewOrchestrator builds a pipeline orchestrator against lazily connected
// stores. Exposed for the pipeline CLI mode, which runs without the server.
func NewOrchestrator(config *common.Config, logger arbor.ILogger) *pipeline.Orchestrator {
	eventSink := &lazyEventSink{config: &config.Mongo, logger: logger}
	rateSink := &lazyRateSink{config: &config.Postgres, logger: logger}
	transform := &lazyTransformRunner{config: config, logger: logger}
	return pipeline.NewOrchestrator(config, eventSink, rateSink, transform, logger)
}

// Start starts background components (currently the optional scheduler).
func (a *App) Start() {
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
}

// Stop stops background components.
func (a *App) Stop() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
}
