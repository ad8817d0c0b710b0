package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-bench/promptbench/internal/models"
)

// fakeStore is an in-memory ResultStore for engine tests.
type fakeStore struct {
	experiments []models.ExperimentResult
	aiEvals     []models.AIEvaluation
	rankings    []models.HumanRanking
	weights     *models.RankingWeights
}

func (f *fakeStore) GetSuccessfulExperiments(_ context.Context, _ string) ([]models.ExperimentResult, error) {
	return f.experiments, nil
}

func (f *fakeStore) GetAIEvaluations(_ context.Context, _ string) ([]models.AIEvaluation, error) {
	return f.aiEvals, nil
}

func (f *fakeStore) GetHumanRankings(_ context.Context, _ string) ([]models.HumanRanking, error) {
	return f.rankings, nil
}

func (f *fakeStore) GetWeights(_ context.Context, _ string) (*models.RankingWeights, error) {
	return f.weights, nil
}

func costPtr(v float64) *float64 { return &v }

func TestRecommend_NoExperiments(t *testing.T) {
	engine := NewEngine(&fakeStore{})

	_, err := engine.Recommend(context.Background(), "missing-prompt", nil)
	require.Error(t, err)
	if !errors.Is(err, ErrNoExperiments) {
		t.Errorf("expected ErrNoExperiments, got %v", err)
	}
}

// TestRecommend_ThreeConfigs covers the full pipeline: one human ranking
// [A,B,C], durations 1s/2s/3s, costs $0.01/$0.02/$0.03, default weights.
func TestRecommend_ThreeConfigs(t *testing.T) {
	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e-a", "config-a", 1.0, costPtr(0.01)),
			makeExperiment("e-b", "config-b", 2.0, costPtr(0.02)),
			makeExperiment("e-c", "config-c", 3.0, costPtr(0.03)),
		},
		rankings: []models.HumanRanking{
			makeHumanRanking("alice", "e-a", "e-b", "e-c"),
		},
	}
	engine := NewEngine(store)

	rec, err := engine.Recommend(context.Background(), "test-prompt", nil)
	require.NoError(t, err)

	if rec.RecommendedConfig != "config-a" {
		t.Errorf("expected config-a recommended, got %s", rec.RecommendedConfig)
	}
	if rec.RunnerUpConfig != "config-b" {
		t.Errorf("expected config-b as runner-up, got %s", rec.RunnerUpConfig)
	}

	// quality(A) = 10, speed(A) = 10*(1-1/3), cost(A) = 10*(1-0.01/0.03).
	require.InDelta(t, 10.0, rec.QualityScore, 1e-9)
	require.InDelta(t, 6.6667, rec.SpeedScore, 1e-3)
	require.InDelta(t, 6.6667, rec.CostScore, 1e-3)

	// final(A) = 10*0.6 + 6.667*0.3 + 6.667*0.1 ≈ 8.667
	require.InDelta(t, 8.6667, rec.FinalScore, 1e-3)
	// final(B) = 6.667*0.6 + 3.333*0.3 + 3.333*0.1 ≈ 5.333
	require.InDelta(t, 3.3333, rec.ScoreDifference, 1e-3)

	if rec.NumHumanRankings != 1 {
		t.Errorf("expected 1 human ranking counted, got %d", rec.NumHumanRankings)
	}
	if rec.Reasoning == "" {
		t.Error("expected non-empty reasoning")
	}
	// Single human ranking → no consensus agreement block.
	require.Nil(t, rec.ConsensusAgreement)
}

func TestRecommend_SingleConfigNoRunnerUp(t *testing.T) {
	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e1", "only-config", 2.0, nil),
		},
	}
	engine := NewEngine(store)

	rec, err := engine.Recommend(context.Background(), "test-prompt", nil)
	require.NoError(t, err)

	if rec.RunnerUpConfig != "" {
		t.Errorf("expected no runner-up for single config, got %s", rec.RunnerUpConfig)
	}
	if rec.ScoreDifference != 0 {
		t.Errorf("expected 0 score difference, got %f", rec.ScoreDifference)
	}
	// No evidence, no cost data: quality and cost neutral.
	require.InDelta(t, 5.0, rec.QualityScore, 1e-9)
	require.InDelta(t, 5.0, rec.CostScore, 1e-9)
}

func TestRecommend_SuppliedWeightsValidated(t *testing.T) {
	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e1", "a", 1.0, nil),
		},
	}
	engine := NewEngine(store)

	bad := &models.RankingWeights{PromptName: "p", Quality: 0.5, Speed: 0.5, Cost: 0.5}
	_, err := engine.Recommend(context.Background(), "test-prompt", bad)
	require.ErrorIs(t, err, models.ErrInvalidWeights)
}

func TestRecommend_StoredWeightsUsed(t *testing.T) {
	// All-speed weights flip the winner to the faster config even though
	// the human ranking favors the slower one.
	stored, err := models.NewRankingWeights("test-prompt", 0.0, 1.0, 0.0, "admin")
	require.NoError(t, err)

	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e-slow", "slow-but-loved", 10.0, nil),
			makeExperiment("e-fast", "fast", 1.0, nil),
		},
		rankings: []models.HumanRanking{
			makeHumanRanking("alice", "e-slow", "e-fast"),
		},
		weights: &stored,
	}
	engine := NewEngine(store)

	rec, err := engine.Recommend(context.Background(), "test-prompt", nil)
	require.NoError(t, err)
	if rec.RecommendedConfig != "fast" {
		t.Errorf("expected speed-only weights to pick the fast config, got %s", rec.RecommendedConfig)
	}
}

func TestRecommend_ConsensusAgreement(t *testing.T) {
	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e-a", "config-a", 1.0, nil),
			makeExperiment("e-b", "config-b", 2.0, nil),
		},
		rankings: []models.HumanRanking{
			makeHumanRanking("alice", "e-a", "e-b"),
			makeHumanRanking("bob", "e-a", "e-b"),
		},
	}
	engine := NewEngine(store)

	rec, err := engine.Recommend(context.Background(), "test-prompt", nil)
	require.NoError(t, err)
	require.NotNil(t, rec.ConsensusAgreement)
	// Recommended config tops the consensus: 1 - 0/2 = 1.0.
	require.InDelta(t, 1.0, *rec.ConsensusAgreement, 1e-9)
}

func TestRecommend_TieBreakFirstConfig(t *testing.T) {
	// Identical metrics: the configuration seen first in experiment order
	// wins, mirroring the stable-sort policy everywhere else.
	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e1", "first", 2.0, nil),
			makeExperiment("e2", "second", 2.0, nil),
		},
	}
	engine := NewEngine(store)

	rec, err := engine.Recommend(context.Background(), "test-prompt", nil)
	require.NoError(t, err)
	if rec.RecommendedConfig != "first" {
		t.Errorf("expected first config to win the tie, got %s", rec.RecommendedConfig)
	}
}

func TestRecommend_ZeroDurations(t *testing.T) {
	store := &fakeStore{
		experiments: []models.ExperimentResult{
			makeExperiment("e1", "a", 0.0, nil),
			makeExperiment("e2", "b", 0.0, nil),
		},
	}
	engine := NewEngine(store)

	rec, err := engine.Recommend(context.Background(), "test-prompt", nil)
	require.NoError(t, err)
	// max duration 0 → neutral speed for everyone.
	require.InDelta(t, 5.0, rec.SpeedScore, 1e-9)
}
