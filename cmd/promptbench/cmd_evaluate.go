package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/judge"
	"github.com/prompt-bench/promptbench/internal/models"
)

func newEvaluateCommand() *cobra.Command {
	var model string
	var reviewPromptID string

	cmd := &cobra.Command{
		Use:   "evaluate <prompt>",
		Short: "Run a batch AI evaluation for a prompt",
		Long: `Run a batch AI evaluation for a prompt.

All successful experiment responses are sent to the judge model in one
comparative request, producing per-configuration scores and a ranking.
Requires OPENAI_API_KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptName := args[0]

			cfg, store, err := loadProject()
			if err != nil {
				return err
			}

			apiKey := os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for AI evaluation")
			}
			if model == "" {
				model = cfg.Judge.Model
			}
			temperature := float32(0)
			if cfg.Judge.Temperature != nil {
				temperature = float32(*cfg.Judge.Temperature)
			}

			j, err := judge.New(store, judge.Config{
				APIKey:      apiKey,
				Model:       model,
				Temperature: temperature,
				Logger:      slog.Default(),
			})
			if err != nil {
				return err
			}

			var reviewPrompt *models.ReviewPrompt
			if reviewPromptID != "" {
				rp, err := store.GetReviewPrompt(cmd.Context(), reviewPromptID)
				if err != nil {
					return err
				}
				reviewPrompt = rp
			}

			batch, err := j.StartBatch(cmd.Context(), promptName, reviewPrompt)
			if err != nil {
				return err
			}
			cmd.Printf("Evaluating %d experiments for %s with %s...\n",
				batch.NumExperiments, promptName, model)

			if err := j.Evaluate(cmd.Context(), *batch, reviewPrompt); err != nil {
				return fmt.Errorf("batch %s failed: %w", batch.BatchID, err)
			}

			final, err := store.GetAIBatch(cmd.Context(), batch.BatchID)
			if err != nil {
				return err
			}
			cmd.Printf("Batch %s completed: %d/%d evaluated\n",
				final.BatchID, final.NumCompleted, final.NumExperiments)
			for i, id := range final.RankedExperimentIDs {
				cmd.Printf("  %d. %s\n", i+1, id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Judge model (default from config)")
	cmd.Flags().StringVar(&reviewPromptID, "review-prompt", "", "Review prompt template id")

	return cmd
}
