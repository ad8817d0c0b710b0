package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/ranking"
)

func newRankCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <prompt>",
		Short: "Show human rankings and their consensus for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptName := args[0]

			_, store, err := loadProject()
			if err != nil {
				return err
			}

			rankings, err := store.GetHumanRankings(cmd.Context(), promptName)
			if err != nil {
				return err
			}
			if len(rankings) == 0 {
				return fmt.Errorf("no rankings for prompt %q", promptName)
			}

			cmd.Printf("Rankings for %s (%d evaluator(s))\n\n", promptName, len(rankings))
			for _, r := range rankings {
				cmd.Printf("  %s:", r.EvaluatorName)
				for i, id := range r.RankedExperimentIDs {
					cmd.Printf(" %d.%s", i+1, id)
				}
				if r.AIAgreementScore != nil {
					cmd.Printf("  (AI agreement %.2f)", *r.AIAgreementScore)
				}
				cmd.Println()
			}

			consensus := ranking.CalculateConsensus(rankings, nil)
			cmd.Printf("\nConsensus (variability: %s):\n", consensus.Variability)
			for i, id := range consensus.ConsensusRanking {
				cmd.Printf("  %d. %s  (%.0f points)\n", i+1, id, consensus.ConfidenceScores[id])
			}
			return nil
		},
	}

	return cmd
}
