package models

import "time"

// ConfidenceLevel labels how much evidence backs a recommendation.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// Recommendation is the best-configuration verdict for a prompt. It is
// derived, recomputed on demand from current evidence, and never partially
// updated.
type Recommendation struct {
	PromptName        string `json:"prompt_name"`
	RecommendedConfig string `json:"recommended_config"`

	FinalScore   float64 `json:"final_score"`
	QualityScore float64 `json:"quality_score"`
	SpeedScore   float64 `json:"speed_score"`
	CostScore    float64 `json:"cost_score"`

	Confidence        ConfidenceLevel `json:"confidence"`
	ConfidenceFactors []string        `json:"confidence_factors"`

	NumAIEvaluations int `json:"num_ai_evaluations"`
	NumHumanRankings int `json:"num_human_rankings"`

	// ConsensusAgreement is only set when at least two human rankings
	// exist: the recommended configuration's position in the Borda
	// consensus, normalized to [0,1] where 1 means top of consensus.
	ConsensusAgreement *float64 `json:"consensus_agreement,omitempty"`

	Reasoning string `json:"reasoning"`

	RunnerUpConfig  string  `json:"runner_up_config,omitempty"`
	ScoreDifference float64 `json:"score_difference"`

	GeneratedAt time.Time `json:"generated_at"`
}
