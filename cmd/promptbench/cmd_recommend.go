package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/models"
	"github.com/prompt-bench/promptbench/internal/recommend"
)

func newRecommendCommand() *cobra.Command {
	var quality, speed, cost float64
	var save bool

	cmd := &cobra.Command{
		Use:   "recommend <prompt>",
		Short: "Recommend the best configuration for a prompt",
		Long: `Recommend the best configuration for a prompt.

The recommendation combines quality (human rankings taking precedence over
AI judge scores), speed, and cost. Pass --quality/--speed/--cost to
override the stored weights for this invocation; the triple must sum to
1.0.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptName := args[0]

			_, store, err := loadProject()
			if err != nil {
				return err
			}
			engine := recommend.NewEngine(store)

			var weights *models.RankingWeights
			if cmd.Flags().Changed("quality") || cmd.Flags().Changed("speed") || cmd.Flags().Changed("cost") {
				w, err := models.NewRankingWeights(promptName, quality, speed, cost, "cli")
				if err != nil {
					return err
				}
				weights = &w
			}

			rec, err := engine.Recommend(cmd.Context(), promptName, weights)
			if err != nil {
				if errors.Is(err, recommend.ErrNoExperiments) {
					return fmt.Errorf("no successful experiments for prompt %q", promptName)
				}
				return err
			}

			if save {
				if err := store.SaveRecommendation(cmd.Context(), *rec); err != nil {
					return err
				}
			}

			printRecommendation(cmd, rec)
			return nil
		},
	}

	cmd.Flags().Float64Var(&quality, "quality", 0.60, "Quality weight")
	cmd.Flags().Float64Var(&speed, "speed", 0.30, "Speed weight")
	cmd.Flags().Float64Var(&cost, "cost", 0.10, "Cost weight")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the recommendation snapshot")

	return cmd
}

func printRecommendation(cmd *cobra.Command, rec *models.Recommendation) {
	cmd.Printf("Recommendation for %s\n\n", rec.PromptName)
	cmd.Printf("  Best configuration: %s (final score %.2f)\n", rec.RecommendedConfig, rec.FinalScore)
	cmd.Printf("  Quality %.2f | Speed %.2f | Cost %.2f\n", rec.QualityScore, rec.SpeedScore, rec.CostScore)
	if rec.RunnerUpConfig != "" {
		cmd.Printf("  Runner-up: %s (behind by %.2f)\n", rec.RunnerUpConfig, rec.ScoreDifference)
	}
	cmd.Printf("\n  Confidence: %s\n", rec.Confidence)
	for _, factor := range rec.ConfidenceFactors {
		cmd.Printf("    - %s\n", factor)
	}
	if rec.ConsensusAgreement != nil {
		cmd.Printf("  Consensus agreement: %.0f%%\n", *rec.ConsensusAgreement*100)
	}
	cmd.Printf("\n  %s\n", rec.Reasoning)
}
