package models

import "time"

// ChangeDirection indicates which way an item moved between two orderings.
type ChangeDirection string

const (
	// DirectionUp means the item moved to a numerically smaller rank.
	DirectionUp   ChangeDirection = "up"
	DirectionDown ChangeDirection = "down"
)

// RankChange records one item whose position differs between two orderings.
// Ranks are 1-based.
type RankChange struct {
	ExperimentID string          `json:"experiment_id"`
	FromRank     int             `json:"from_rank"`
	ToRank       int             `json:"to_rank"`
	Direction    ChangeDirection `json:"direction"`
	Magnitude    int             `json:"magnitude"`
}

// HumanRanking is one evaluator's complete ordering (best to worst) of
// experiment identifiers for a prompt. One ranking corresponds to one
// evaluator session and is immutable once created.
type HumanRanking struct {
	RankingID     string `json:"ranking_id"`
	PromptName    string `json:"prompt_name"`
	EvaluatorName string `json:"evaluator_name"`

	// RankedExperimentIDs is a permutation: every listed id is unique.
	RankedExperimentIDs []string `json:"ranked_experiment_ids"`

	// BasedOnAIBatchID references the AI batch the evaluator started from,
	// if any.
	BasedOnAIBatchID string `json:"based_on_ai_batch_id,omitempty"`

	// Agreement metrics versus the AI batch ordering, when one was supplied.
	AIAgreementScore     *float64 `json:"ai_agreement_score,omitempty"`
	Top3Overlap          *int     `json:"top_3_overlap,omitempty"`
	ExactPositionMatches *int     `json:"exact_position_matches,omitempty"`

	ChangesFromAI []RankChange `json:"changes_from_ai,omitempty"`

	Notes            string    `json:"notes,omitempty"`
	TimeSpentSeconds float64   `json:"time_spent_seconds,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
