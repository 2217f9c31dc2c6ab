// Package pipeline orchestrates the three ingest/transform steps with
// explicit dependency edges: the transform runs only after both ingests
// succeed. The step graph is fixed, so ordering is an ordered call
// sequence, not a general dependency resolver.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/searadar/internal/common"
	"github.com/ternarybob/searadar/internal/miner"
	"github.com/ternarybob/searadar/internal/models"
	"github.com/ternarybob/searadar/internal/rates"
)

// EventSink replaces the document store's events collection.
type EventSink interface {
	ReplaceEvents(ctx context.Context, events []models.NewsEvent) (int, error)
}

// RateSink replaces the relational staging table.
type RateSink interface {
	ReplaceRates(ctx context.Context, rates []models.HourlyRate) (int, error)
}

// TransformRunner executes the read-join-write plan.
type TransformRunner interface {
	Run(ctx context.Context) (string, error)
}

// Orchestrator runs the ingest and transform steps in dependency order.
type Orchestrator struct {
	config    *common.Config
	eventSink EventSink
	rateSink  RateSink
	transform TransformRunner
	logger    arbor.ILogger

	mu      sync.Mutex
	lastRun *models.PipelineRun
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(config *common.Config, eventSink EventSink, rateSink RateSink, transform TransformRunner, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		config:    config,
		eventSink: eventSink,
		rateSink:  rateSink,
		transform: transform,
		logger:    logger,
	}
}

// Run executes one pipeline run: news ingest, rate ingest, then transform.
// Step errors are captured in the run record and never crash the host
// process; a failed ingest skips the transform.
func (o *Orchestrator) Run(ctx context.Context) *models.PipelineRun {
	run := &models.PipelineRun{
		ID:        common.NewRunID(),
		StartedAt: time.Now(),
	}

	o.logger.Info().Str("run_id", run.ID).Msg("Pipeline run started")

	newsStep := o.runStep(ctx, "news_ingest", o.ingestNews)
	ratesStep := o.runStep(ctx, "rates_ingest", o.ingestRates)
	run.Steps = append(run.Steps, newsStep, ratesStep)

	if newsStep.Status == models.StepStatusCompleted && ratesStep.Status == models.StepStatusCompleted {
		run.Steps = append(run.Steps, o.runStep(ctx, "transform", o.transform.Run))
	} else {
		run.Steps = append(run.Steps, models.StepResult{
			Name:    "transform",
			Status:  models.StepStatusSkipped,
			Message: "upstream ingest step failed",
		})
	}

	run.FinishedAt = time.Now()

	o.mu.Lock()
	o.lastRun = run
	o.mu.Unlock()

	o.logger.Info().
		Str("run_id", run.ID).
		Bool("failed", run.Failed()).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Pipeline run finished")

	return run
}

// LastRun returns the most recent run record, or nil before the first run.
func (o *Orchestrator) LastRun() *models.PipelineRun {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastRun
}

func (o *Orchestrator) runStep(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) models.StepResult {
	start := time.Now()
	message, err := fn(ctx)
	result := models.StepResult{
		Name:     name,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Status = models.StepStatusFailed
		result.Error = err.Error()
		o.logger.Warn().Err(err).Str("step", name).Msg("Pipeline step failed")
		return result
	}
	result.Status = models.StepStatusCompleted
	result.Message = message
	o.logger.Info().Str("step", name).Str("result", message).Msg("Pipeline step completed")
	return result
}

// ingestNews loads the miner's CSV output and replaces the document store
// collection with it. An empty batch still clears the collection, so a run
// never leaves stale documents from the previous mine.
func (o *Orchestrator) ingestNews(ctx context.Context) (string, error) {
	events, err := miner.ReadCSV(o.config.GDELT.OutputCSV)
	if err != nil {
		return "", err
	}
	inserted, err := o.eventSink.ReplaceEvents(ctx, events)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "cleared events collection (mined CSV was empty)", nil
	}
	return fmt.Sprintf("inserted %d news events", inserted), nil
}

// ingestRates loads the upsampler's CSV output and replaces the staging
// table with it.
func (o *Orchestrator) ingestRates(ctx context.Context) (string, error) {
	hourly, err := rates.ReadHourlyCSV(o.config.Rates.OutputCSV)
	if err != nil {
		return "", err
	}
	inserted, err := o.rateSink.ReplaceRates(ctx, hourly)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("uploaded %d hourly rate records", inserted), nil
}
