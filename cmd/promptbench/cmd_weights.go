package main

import (
	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/models"
)

func newWeightsCommand() *cobra.Command {
	var quality, speed, cost float64
	var updatedBy string

	cmd := &cobra.Command{
		Use:   "weights <prompt>",
		Short: "Show or set the ranking weights for a prompt",
		Long: `Show or set the ranking weights for a prompt.

Without weight flags, prints the effective triple (stored, the "_default"
entry, or built-in defaults). With --quality/--speed/--cost, stores a new
triple; it must sum to 1.0. Use the prompt name "_default" to set the
global fallback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptName := args[0]

			_, store, err := loadProject()
			if err != nil {
				return err
			}

			setting := cmd.Flags().Changed("quality") ||
				cmd.Flags().Changed("speed") ||
				cmd.Flags().Changed("cost")

			if setting {
				weights, err := models.NewRankingWeights(promptName, quality, speed, cost, updatedBy)
				if err != nil {
					return err
				}
				if err := store.SaveWeights(cmd.Context(), weights); err != nil {
					return err
				}
				cmd.Printf("Weights for %s set to quality=%.2f speed=%.2f cost=%.2f\n",
					promptName, weights.Quality, weights.Speed, weights.Cost)
				return nil
			}

			weights, err := store.GetWeights(cmd.Context(), promptName)
			if err != nil {
				return err
			}
			if weights == nil {
				defaults := models.DefaultWeights(promptName)
				weights = &defaults
			}
			cmd.Printf("Weights for %s: quality=%.2f speed=%.2f cost=%.2f (updated by %s)\n",
				promptName, weights.Quality, weights.Speed, weights.Cost, weights.UpdatedBy)
			return nil
		},
	}

	cmd.Flags().Float64Var(&quality, "quality", 0.60, "Quality weight")
	cmd.Flags().Float64Var(&speed, "speed", 0.30, "Speed weight")
	cmd.Flags().Float64Var(&cost, "cost", 0.10, "Cost weight")
	cmd.Flags().StringVar(&updatedBy, "updated-by", "cli", "Who is setting the weights")

	return cmd
}
