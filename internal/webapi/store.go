package webapi

import (
	"context"

	"github.com/prompt-bench/promptbench/internal/models"
)

// Store is the persistence surface the API handlers need. The SQLite store
// satisfies it.
type Store interface {
	ListExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error)
	GetExperiment(ctx context.Context, experimentID string) (*models.ExperimentResult, error)
	GetSuccessfulExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error)
	SetAcceptability(ctx context.Context, experimentID string, acceptable bool) error
	ListPrompts(ctx context.Context) ([]string, error)

	GetAIBatch(ctx context.Context, batchID string) (*models.AIEvaluationBatch, error)
	GetReviewPrompt(ctx context.Context, promptID string) (*models.ReviewPrompt, error)

	SaveHumanRanking(ctx context.Context, ranking models.HumanRanking) error
	GetHumanRankings(ctx context.Context, promptName string) ([]models.HumanRanking, error)

	SaveWeights(ctx context.Context, weights models.RankingWeights) error
	GetWeights(ctx context.Context, promptName string) (*models.RankingWeights, error)

	SaveRecommendation(ctx context.Context, rec models.Recommendation) error
}

// BatchJudge starts and runs batch AI evaluations. The OpenAI-backed judge
// satisfies it; a nil judge disables the evaluation endpoints.
type BatchJudge interface {
	StartBatch(ctx context.Context, promptName string, reviewPrompt *models.ReviewPrompt) (*models.AIEvaluationBatch, error)
	Evaluate(ctx context.Context, batch models.AIEvaluationBatch, reviewPrompt *models.ReviewPrompt) error
}
