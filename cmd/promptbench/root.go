package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/projectconfig"
	"github.com/prompt-bench/promptbench/internal/storage"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promptbench",
		Short: "promptbench - benchmark LLM configurations against your prompts",
		Long: `promptbench benchmarks LLM configurations against a set of prompts.

It stores experiment results, runs AI judge evaluations, collects human
rankings, and recommends the best configuration per prompt from quality,
speed, and cost evidence.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// .env is optional; it typically carries OPENAI_API_KEY.
		_ = godotenv.Load()
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newRecommendCommand())
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newRankCommand())
	cmd.AddCommand(newWeightsCommand())
	cmd.AddCommand(newEvaluateCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// loadProject resolves the project configuration and opens the store it
// points at.
func loadProject() (*projectconfig.ProjectConfig, *storage.Store, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
