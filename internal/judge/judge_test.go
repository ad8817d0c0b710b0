package judge

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/prompt-bench/promptbench/internal/models"
)

type fakeBatchStore struct {
	experiments []models.ExperimentResult
	batches     map[string]models.AIEvaluationBatch
	evals       []models.AIEvaluation
}

func newFakeBatchStore(experiments ...models.ExperimentResult) *fakeBatchStore {
	return &fakeBatchStore{
		experiments: experiments,
		batches:     make(map[string]models.AIEvaluationBatch),
	}
}

func (f *fakeBatchStore) GetSuccessfulExperiments(_ context.Context, _ string) ([]models.ExperimentResult, error) {
	return f.experiments, nil
}

func (f *fakeBatchStore) SaveAIBatch(_ context.Context, batch models.AIEvaluationBatch) error {
	f.batches[batch.BatchID] = batch
	return nil
}

func (f *fakeBatchStore) UpdateAIBatch(_ context.Context, batch models.AIEvaluationBatch) error {
	if _, ok := f.batches[batch.BatchID]; !ok {
		return fmt.Errorf("batch %q not found", batch.BatchID)
	}
	f.batches[batch.BatchID] = batch
	return nil
}

func (f *fakeBatchStore) SaveAIEvaluation(_ context.Context, eval models.AIEvaluation) error {
	f.evals = append(f.evals, eval)
	return nil
}

type fakeCompletion struct {
	content string
	err     error
}

func (f *fakeCompletion) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func testJudge(store BatchStore, client completionClient) *Judge {
	return &Judge{
		client:      client,
		store:       store,
		model:       "gpt-4o",
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(newFakeBatchStore(), Config{})
	require.Error(t, err)
}

func TestStartBatch(t *testing.T) {
	store := newFakeBatchStore(
		models.ExperimentResult{ExperimentID: "e1", ConfigName: "fast", Success: true},
		models.ExperimentResult{ExperimentID: "e2", ConfigName: "smart", Success: true},
	)
	j := testJudge(store, &fakeCompletion{})

	batch, err := j.StartBatch(context.Background(), "summarize", nil)
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusRunning, batch.Status)
	require.Equal(t, 2, batch.NumExperiments)
	require.NotEmpty(t, batch.BatchID)
	require.Contains(t, store.batches, batch.BatchID)
}

func TestStartBatch_NoExperiments(t *testing.T) {
	j := testJudge(newFakeBatchStore(), &fakeCompletion{})

	_, err := j.StartBatch(context.Background(), "summarize", nil)
	require.Error(t, err)
}

func TestEvaluate_CompletesBatch(t *testing.T) {
	store := newFakeBatchStore(
		models.ExperimentResult{ExperimentID: "e1", ConfigName: "fast", Success: true},
		models.ExperimentResult{ExperimentID: "e2", ConfigName: "smart", Success: true},
	)
	// Verdict arrives worst-first; the batch ordering must still be best-first.
	client := &fakeCompletion{content: "```json\n" + `{
		"rankings": [
			{"config_name": "fast", "rank": 2, "overall_score": 6.0, "justification": "terse"},
			{"config_name": "smart", "rank": 1, "overall_score": 9.0, "justification": "thorough"}
		],
		"summary": "smart wins"
	}` + "\n```"}
	j := testJudge(store, client)

	batch, err := j.StartBatch(context.Background(), "summarize", nil)
	require.NoError(t, err)
	require.NoError(t, j.Evaluate(context.Background(), *batch, nil))

	final := store.batches[batch.BatchID]
	require.Equal(t, models.BatchStatusCompleted, final.Status)
	require.Equal(t, 2, final.NumCompleted)
	require.Equal(t, []string{"e2", "e1"}, final.RankedExperimentIDs)
	require.NotNil(t, final.CompletedAt)
	require.NotNil(t, final.TotalDuration)

	require.Len(t, store.evals, 2)
	require.Equal(t, "e1", store.evals[0].ExperimentID)
	require.Equal(t, 2, store.evals[0].AIRank)
	require.InDelta(t, 6.0, store.evals[0].OverallScore, 1e-9)
}

func TestEvaluate_FailureFinalizesBatch(t *testing.T) {
	store := newFakeBatchStore(
		models.ExperimentResult{ExperimentID: "e1", ConfigName: "fast", Success: true},
	)
	client := &fakeCompletion{err: fmt.Errorf("rate limited")}
	j := testJudge(store, client)

	batch, err := j.StartBatch(context.Background(), "summarize", nil)
	require.NoError(t, err)
	require.Error(t, j.Evaluate(context.Background(), *batch, nil))

	final := store.batches[batch.BatchID]
	require.Equal(t, models.BatchStatusFailed, final.Status)
	require.NotNil(t, final.CompletedAt)
	require.Empty(t, store.evals)
}

func TestEvaluate_UnknownConfigSkipped(t *testing.T) {
	store := newFakeBatchStore(
		models.ExperimentResult{ExperimentID: "e1", ConfigName: "fast", Success: true},
	)
	client := &fakeCompletion{content: `{
		"rankings": [
			{"config_name": "fast", "rank": 1, "overall_score": 8.0},
			{"config_name": "hallucinated-config", "rank": 2, "overall_score": 4.0}
		]
	}`}
	j := testJudge(store, client)

	batch, err := j.StartBatch(context.Background(), "summarize", nil)
	require.NoError(t, err)
	require.NoError(t, j.Evaluate(context.Background(), *batch, nil))

	final := store.batches[batch.BatchID]
	require.Equal(t, 1, final.NumCompleted)
	require.Equal(t, []string{"e1"}, final.RankedExperimentIDs)
}
