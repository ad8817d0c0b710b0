// Package models defines the data records shared across the benchmark:
// experiment results, AI and human evaluations, ranking weights, and
// recommendations. These are plain structs; persistence mapping lives in
// the storage package.
package models

import "time"

// RunStatus tracks the lifecycle of an experiment run.
type RunStatus string

const (
	RunStatusRunning            RunStatus = "running"
	RunStatusExperimentComplete RunStatus = "experiment_completed"
	RunStatusAnalysisComplete   RunStatus = "analysis_completed"
)

// ExperimentResult is one execution of a prompt under one named
// configuration. Created once by the execution layer; immutable afterwards
// except for the acceptability flag and run association.
type ExperimentResult struct {
	ExperimentID string `json:"experiment_id"`
	PromptName   string `json:"prompt_name"`
	ConfigName   string `json:"config_name"`
	RunID        string `json:"run_id,omitempty"`

	RenderedPrompt string `json:"rendered_prompt,omitempty"`
	Response       string `json:"response,omitempty"`
	FinishReason   string `json:"finish_reason,omitempty"`

	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`

	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// EstimatedCostUSD is nil when the execution layer produced no cost
	// figure; scoring treats that as missing data, not zero cost.
	EstimatedCostUSD *float64 `json:"estimated_cost_usd,omitempty"`

	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`

	// IsAcceptable is a human override marking a result unusable despite
	// technical success.
	IsAcceptable bool `json:"is_acceptable"`

	CreatedAt time.Time `json:"created_at"`
}

// ExperimentRun groups all experiments executed together for one prompt.
// The status field is the run's source of truth for in-flight state; there
// is no process-global running set.
type ExperimentRun struct {
	RunID      string `json:"run_id"`
	PromptName string `json:"prompt_name"`

	Status     RunStatus `json:"status"`
	NumConfigs int       `json:"num_configs"`
	TotalCost  *float64  `json:"total_cost,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
