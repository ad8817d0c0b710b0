package models

import "time"

// BatchStatus tracks the lifecycle of an AI evaluation batch.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
)

// AIEvaluation is one LLM-judge score for one experiment, produced as part
// of a batch comparative evaluation. The judge sees all responses for a
// prompt simultaneously and ranks them together. Immutable once created.
type AIEvaluation struct {
	EvaluationID   string `json:"evaluation_id"`
	ExperimentID   string `json:"experiment_id"`
	ReviewPromptID string `json:"review_prompt_id,omitempty"`
	BatchID        string `json:"batch_id"`

	ModelEvaluator string `json:"model_evaluator"`

	// CriteriaScores maps criterion name to a 0-10 score.
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	OverallScore   float64            `json:"overall_score"`

	// AIRank is the position within the batch, 1 = best.
	AIRank int `json:"ai_rank"`

	Justification string   `json:"justification"`
	Strengths     []string `json:"strengths,omitempty"`
	Weaknesses    []string `json:"weaknesses,omitempty"`

	EvaluatedAt        time.Time `json:"evaluated_at"`
	EvaluationDuration float64   `json:"evaluation_duration"`
}

// AIEvaluationBatch groups all AIEvaluations from one judge invocation for
// one prompt. Created when a batch evaluation starts and finalized
// (completed or failed) exactly once.
type AIEvaluationBatch struct {
	BatchID        string `json:"batch_id"`
	PromptName     string `json:"prompt_name"`
	ReviewPromptID string `json:"review_prompt_id,omitempty"`
	ModelEvaluator string `json:"model_evaluator"`

	Status         BatchStatus `json:"status"`
	NumExperiments int         `json:"num_experiments"`
	NumCompleted   int         `json:"num_completed"`

	EvaluationIDs []string `json:"evaluation_ids,omitempty"`
	// RankedExperimentIDs is ordered by the judge's ranking, best first.
	RankedExperimentIDs []string `json:"ranked_experiment_ids,omitempty"`

	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TotalDuration *float64   `json:"total_duration,omitempty"`
	EstimatedCost float64    `json:"estimated_cost"`
}

// ReviewPrompt is a template for judge evaluation prompts.
type ReviewPrompt struct {
	PromptID    string `json:"prompt_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Template     string `json:"template"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	Criteria     []string `json:"criteria"`
	DefaultModel string   `json:"default_model"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsActive  bool      `json:"is_active"`
}
