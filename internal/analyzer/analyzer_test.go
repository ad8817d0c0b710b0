package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prompt-bench/promptbench/internal/models"
)

type fakeStore struct {
	prompts     []string
	experiments map[string][]models.ExperimentResult
	evals       map[string][]models.AIEvaluation
}

func (f *fakeStore) ListPrompts(_ context.Context) ([]string, error) {
	return f.prompts, nil
}

func (f *fakeStore) GetSuccessfulExperiments(_ context.Context, prompt string) ([]models.ExperimentResult, error) {
	return f.experiments[prompt], nil
}

func (f *fakeStore) GetAIEvaluations(_ context.Context, prompt string) ([]models.AIEvaluation, error) {
	return f.evals[prompt], nil
}

func exp(id, config string, duration float64, tokens int, cost *float64) models.ExperimentResult {
	return models.ExperimentResult{
		ExperimentID:     id,
		PromptName:       "summarize",
		ConfigName:       config,
		DurationSeconds:  duration,
		TotalTokens:      tokens,
		EstimatedCostUSD: cost,
		Success:          true,
	}
}

func eval(experimentID string, score float64) models.AIEvaluation {
	return models.AIEvaluation{
		EvaluationID: "ev-" + experimentID,
		ExperimentID: experimentID,
		BatchID:      "batch-1",
		OverallScore: score,
	}
}

func costPtr(v float64) *float64 { return &v }

func TestAnalyzePrompt_Empty(t *testing.T) {
	a := New(&fakeStore{})

	analysis, err := a.AnalyzePrompt(context.Background(), "summarize")
	require.NoError(t, err)
	require.Empty(t, analysis.Configs)
	require.Empty(t, analysis.BestByScore)
}

func TestAnalyzePrompt_Aggregates(t *testing.T) {
	store := &fakeStore{
		experiments: map[string][]models.ExperimentResult{
			"summarize": {
				exp("e1", "fast", 1.0, 100, costPtr(0.01)),
				exp("e2", "fast", 3.0, 200, costPtr(0.03)),
				exp("e3", "smart", 5.0, 400, nil),
			},
		},
		evals: map[string][]models.AIEvaluation{
			"summarize": {eval("e1", 6.0), eval("e2", 8.0), eval("e3", 9.0)},
		},
	}
	a := New(store)

	analysis, err := a.AnalyzePrompt(context.Background(), "summarize")
	require.NoError(t, err)
	require.Len(t, analysis.Configs, 2)

	fast := analysis.Configs[0]
	require.Equal(t, "fast", fast.ConfigName)
	require.Equal(t, 2, fast.NumExperiments)
	require.Equal(t, 2, fast.NumEvaluations)
	require.InDelta(t, 7.0, fast.AvgScore, 1e-9)
	require.InDelta(t, 2.0, fast.AvgDuration, 1e-9)
	require.InDelta(t, 150.0, fast.AvgTokens, 1e-9)
	require.NotNil(t, fast.AvgCostUSD)
	require.InDelta(t, 0.02, *fast.AvgCostUSD, 1e-9)
	require.NotNil(t, fast.ScoreCI)

	smart := analysis.Configs[1]
	require.Nil(t, smart.AvgCostUSD)
	require.InDelta(t, 9.0, smart.AvgScore, 1e-9)

	if analysis.BestByScore != "smart" {
		t.Errorf("expected smart best by score, got %s", analysis.BestByScore)
	}
	if analysis.BestByDuration != "fast" {
		t.Errorf("expected fast best by duration, got %s", analysis.BestByDuration)
	}
	// Only "fast" has cost data at all.
	if analysis.BestByCost != "fast" {
		t.Errorf("expected fast best by cost, got %s", analysis.BestByCost)
	}
}

func TestAnalyzeAllPrompts(t *testing.T) {
	store := &fakeStore{
		prompts: []string{"summarize", "classify"},
		experiments: map[string][]models.ExperimentResult{
			"summarize": {exp("e1", "fast", 1.0, 100, nil)},
			"classify":  {exp("e2", "smart", 2.0, 200, nil)},
		},
	}
	a := New(store)

	analyses, err := a.AnalyzeAllPrompts(context.Background())
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	require.Contains(t, analyses, "summarize")
	require.Contains(t, analyses, "classify")
	require.Len(t, analyses["summarize"].Configs, 1)
}

func TestOverallRankings(t *testing.T) {
	analyses := map[string]*PromptAnalysis{
		"summarize": {
			PromptName: "summarize",
			Configs: []ConfigStats{
				{ConfigName: "fast", NumExperiments: 2, NumEvaluations: 2, AvgScore: 6.0},
				{ConfigName: "smart", NumExperiments: 1, NumEvaluations: 1, AvgScore: 9.0},
			},
		},
		"classify": {
			PromptName: "classify",
			Configs: []ConfigStats{
				{ConfigName: "fast", NumExperiments: 1, NumEvaluations: 1, AvgScore: 8.0},
				{ConfigName: "unscored", NumExperiments: 1},
			},
		},
	}

	ranked := OverallRankings(analyses)
	require.Len(t, ranked, 3)

	// smart: 9.0, fast: (6+8)/2 = 7.0, unscored last.
	require.Equal(t, "smart", ranked[0].ConfigName)
	require.Equal(t, "fast", ranked[1].ConfigName)
	require.InDelta(t, 7.0, ranked[1].AvgScore, 1e-9)
	require.Equal(t, "unscored", ranked[2].ConfigName)
	require.Equal(t, 3, ranked[1].NumExperiments)
}
