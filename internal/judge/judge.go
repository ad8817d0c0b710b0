// Package judge runs LLM-as-judge comparative evaluations. One batch sends
// every configuration's response for a prompt to the judge model in a single
// request, so scores and ranks are directly comparable.
package judge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/prompt-bench/promptbench/internal/models"
)

// DefaultModel is the judge model used when none is configured.
const DefaultModel = "gpt-4o"

// DefaultTemperature keeps judge output consistent across batches.
const DefaultTemperature float32 = 0.3

// BatchStore is the persistence surface the judge writes through.
type BatchStore interface {
	GetSuccessfulExperiments(ctx context.Context, promptName string) ([]models.ExperimentResult, error)
	SaveAIBatch(ctx context.Context, batch models.AIEvaluationBatch) error
	UpdateAIBatch(ctx context.Context, batch models.AIEvaluationBatch) error
	SaveAIEvaluation(ctx context.Context, eval models.AIEvaluation) error
}

// completionClient is the slice of the OpenAI client the judge uses.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds judge construction options.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Logger      *slog.Logger
}

// Judge evaluates experiment batches with an LLM.
type Judge struct {
	client      completionClient
	store       BatchStore
	model       string
	temperature float32
	logger      *slog.Logger
}

// New builds a Judge from config. The API key is required.
func New(store BatchStore, cfg Config) (*Judge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("judge: OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Judge{
		client:      openai.NewClient(cfg.APIKey),
		store:       store,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

// StartBatch registers a new running batch for the prompt's successful
// experiments and returns it. The caller runs Evaluate to completion,
// typically in a background goroutine.
func (j *Judge) StartBatch(ctx context.Context, promptName string, reviewPrompt *models.ReviewPrompt) (*models.AIEvaluationBatch, error) {
	experiments, err := j.store.GetSuccessfulExperiments(ctx, promptName)
	if err != nil {
		return nil, err
	}
	if len(experiments) == 0 {
		return nil, fmt.Errorf("judge: no successful experiments for prompt %q", promptName)
	}

	batch := models.AIEvaluationBatch{
		BatchID:        uuid.NewString(),
		PromptName:     promptName,
		ModelEvaluator: j.model,
		Status:         models.BatchStatusRunning,
		NumExperiments: len(experiments),
		StartedAt:      time.Now().UTC(),
	}
	if reviewPrompt != nil {
		batch.ReviewPromptID = reviewPrompt.PromptID
	}
	if err := j.store.SaveAIBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("saving batch: %w", err)
	}
	return &batch, nil
}

// Evaluate runs the comparative evaluation for a started batch and finalizes
// it exactly once: completed with evaluations, or failed.
func (j *Judge) Evaluate(ctx context.Context, batch models.AIEvaluationBatch, reviewPrompt *models.ReviewPrompt) error {
	start := time.Now()

	err := j.evaluate(ctx, &batch, reviewPrompt)
	elapsed := time.Since(start).Seconds()
	batch.TotalDuration = &elapsed
	now := time.Now().UTC()
	batch.CompletedAt = &now

	if err != nil {
		j.logger.Error("batch evaluation failed",
			"batch_id", batch.BatchID, "prompt", batch.PromptName, "error", err)
		batch.Status = models.BatchStatusFailed
	} else {
		j.logger.Info("batch evaluation completed",
			"batch_id", batch.BatchID, "prompt", batch.PromptName,
			"num_completed", batch.NumCompleted, "duration_seconds", elapsed)
		batch.Status = models.BatchStatusCompleted
	}

	// Finalization failures are reported over the original error.
	if updateErr := j.store.UpdateAIBatch(ctx, batch); updateErr != nil {
		return fmt.Errorf("finalizing batch %s: %w", batch.BatchID, updateErr)
	}
	return err
}

func (j *Judge) evaluate(ctx context.Context, batch *models.AIEvaluationBatch, reviewPrompt *models.ReviewPrompt) error {
	experiments, err := j.store.GetSuccessfulExperiments(ctx, batch.PromptName)
	if err != nil {
		return err
	}
	if len(experiments) == 0 {
		return fmt.Errorf("no successful experiments for prompt %q", batch.PromptName)
	}

	userPrompt := buildComparativePrompt(experiments, reviewPrompt)
	systemPrompt := defaultSystemPrompt
	if reviewPrompt != nil && reviewPrompt.SystemPrompt != "" {
		systemPrompt = reviewPrompt.SystemPrompt
	}

	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: j.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return fmt.Errorf("judge completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("judge returned no choices")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return err
	}

	type rankedID struct {
		id   string
		rank int
	}
	var ranked []rankedID

	evaluatedAt := time.Now().UTC()
	for _, entry := range verdict.Rankings {
		exp := matchExperiment(entry.ConfigName, experiments)
		if exp == nil {
			j.logger.Warn("judge ranked an unknown configuration",
				"batch_id", batch.BatchID, "config", entry.ConfigName)
			continue
		}

		eval := models.AIEvaluation{
			EvaluationID:   uuid.NewString(),
			ExperimentID:   exp.ExperimentID,
			ReviewPromptID: batch.ReviewPromptID,
			BatchID:        batch.BatchID,
			ModelEvaluator: j.model,
			CriteriaScores: entry.CriteriaScores,
			OverallScore:   entry.OverallScore,
			AIRank:         entry.Rank,
			Justification:  entry.Justification,
			Strengths:      entry.Strengths,
			Weaknesses:     entry.Weaknesses,
			EvaluatedAt:    evaluatedAt,
		}
		if err := j.store.SaveAIEvaluation(ctx, eval); err != nil {
			return fmt.Errorf("saving evaluation for %s: %w", exp.ExperimentID, err)
		}

		batch.EvaluationIDs = append(batch.EvaluationIDs, eval.EvaluationID)
		ranked = append(ranked, rankedID{exp.ExperimentID, entry.Rank})
		batch.NumCompleted++
	}

	if batch.NumCompleted == 0 {
		return fmt.Errorf("judge verdict matched no configurations")
	}

	// The model does not always emit rankings sorted by rank.
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].rank < ranked[b].rank })
	batch.RankedExperimentIDs = make([]string, 0, len(ranked))
	for _, r := range ranked {
		batch.RankedExperimentIDs = append(batch.RankedExperimentIDs, r.id)
	}
	return nil
}
