package models

import "time"

// StepStatus is the terminal state of one pipeline step
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepResult records the outcome of one pipeline step within a run
type StepResult struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PipelineRun records one orchestrator execution: three steps in dependency
// order, with the transform skipped when either ingest fails
type PipelineRun struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
}

// Failed reports whether any step of the run failed
func (r *PipelineRun) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepStatusFailed {
			return true
		}
	}
	return false
}
