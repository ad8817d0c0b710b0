package webapi

import (
	"github.com/prompt-bench/promptbench/internal/models"
	"github.com/prompt-bench/promptbench/internal/ranking"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// ExperimentListResponse wraps the experiment listing.
type ExperimentListResponse struct {
	PromptName  string                    `json:"prompt_name,omitempty"`
	NumResults  int                       `json:"num_results"`
	Experiments []models.ExperimentResult `json:"experiments"`
}

// PromptListResponse lists the prompts with stored experiments.
type PromptListResponse struct {
	Prompts []string `json:"prompts"`
}

// AcceptabilityRequest marks an experiment result acceptable or not.
type AcceptabilityRequest struct {
	IsAcceptable *bool `json:"is_acceptable" validate:"required"`
}

// AgreementRequest compares two orderings of experiment identifiers.
type AgreementRequest struct {
	RankingA []string `json:"ranking_a" validate:"required,min=1"`
	RankingB []string `json:"ranking_b" validate:"required,min=1"`
}

// SaveRankingRequest submits one evaluator's ordering for a prompt.
type SaveRankingRequest struct {
	PromptName          string   `json:"prompt_name" validate:"required"`
	EvaluatorName       string   `json:"evaluator_name" validate:"required"`
	RankedExperimentIDs []string `json:"ranked_experiment_ids" validate:"required,min=1,unique"`
	BasedOnAIBatchID    string   `json:"based_on_ai_batch_id,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	TimeSpentSeconds    float64  `json:"time_spent_seconds,omitempty"`
}

// RankingListResponse wraps the stored rankings for a prompt.
type RankingListResponse struct {
	PromptName  string                `json:"prompt_name"`
	NumRankings int                   `json:"num_rankings"`
	Rankings    []models.HumanRanking `json:"rankings"`
}

// ConsensusResponse wraps the Borda consensus for a prompt.
type ConsensusResponse struct {
	PromptName string                   `json:"prompt_name"`
	Consensus  *ranking.ConsensusResult `json:"consensus"`
}

// WeightsRequest sets the ranking weight triple for a prompt.
type WeightsRequest struct {
	Quality   float64 `json:"quality_weight" validate:"min=0,max=1"`
	Speed     float64 `json:"speed_weight" validate:"min=0,max=1"`
	Cost      float64 `json:"cost_weight" validate:"min=0,max=1"`
	UpdatedBy string  `json:"updated_by,omitempty"`
}

// StartBatchRequest starts a batch AI evaluation.
type StartBatchRequest struct {
	PromptName     string `json:"prompt_name" validate:"required"`
	ReviewPromptID string `json:"review_prompt_id,omitempty"`
}

// StartBatchResponse acknowledges a started batch evaluation.
type StartBatchResponse struct {
	Status         string `json:"status"`
	BatchID        string `json:"batch_id"`
	PromptName     string `json:"prompt_name"`
	NumExperiments int    `json:"num_experiments"`
}
