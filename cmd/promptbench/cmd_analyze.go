package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/analyzer"
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [prompt]",
		Short: "Show per-configuration statistics",
		Long: `Show per-configuration statistics for one prompt, or for every
stored prompt plus an overall ranking when no prompt is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadProject()
			if err != nil {
				return err
			}
			a := analyzer.New(store)

			if len(args) == 1 {
				analysis, err := a.AnalyzePrompt(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(analysis.Configs) == 0 {
					return fmt.Errorf("no successful experiments for prompt %q", args[0])
				}
				printAnalysis(cmd, analysis)
				return nil
			}

			analyses, err := a.AnalyzeAllPrompts(cmd.Context())
			if err != nil {
				return err
			}
			if len(analyses) == 0 {
				cmd.Println("No experiments stored yet.")
				return nil
			}
			for _, analysis := range analyses {
				printAnalysis(cmd, analysis)
				cmd.Println()
			}

			cmd.Println("Overall rankings (by average judge score):")
			for i, cs := range analyzer.OverallRankings(analyses) {
				line := fmt.Sprintf("  %d. %-24s", i+1, cs.ConfigName)
				if cs.NumEvaluations > 0 {
					line += fmt.Sprintf(" score %.2f", cs.AvgScore)
				} else {
					line += " (unevaluated)"
				}
				cmd.Println(line)
			}
			return nil
		},
	}

	return cmd
}

func printAnalysis(cmd *cobra.Command, analysis *analyzer.PromptAnalysis) {
	cmd.Printf("Prompt: %s\n", analysis.PromptName)
	for _, cs := range analysis.Configs {
		cmd.Printf("  %-24s %2d experiments", cs.ConfigName, cs.NumExperiments)
		if cs.NumEvaluations > 0 {
			cmd.Printf("  score %.2f", cs.AvgScore)
			if cs.ScoreCI != nil && cs.ScoreCI.NumResamples > 0 {
				cmd.Printf(" [%.2f, %.2f]", cs.ScoreCI.Lower, cs.ScoreCI.Upper)
			}
		}
		cmd.Printf("  %.2fs", cs.AvgDuration)
		if cs.AvgCostUSD != nil {
			cmd.Printf("  $%.6f", *cs.AvgCostUSD)
		}
		cmd.Println()
	}
	if analysis.BestByScore != "" {
		cmd.Printf("  best score: %s", analysis.BestByScore)
		if analysis.BestByDuration != "" {
			cmd.Printf("  fastest: %s", analysis.BestByDuration)
		}
		if analysis.BestByCost != "" {
			cmd.Printf("  cheapest: %s", analysis.BestByCost)
		}
		cmd.Println()
	}
}
