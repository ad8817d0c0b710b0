package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prompt-bench/promptbench/internal/judge"
	"github.com/prompt-bench/promptbench/internal/recommend"
	"github.com/prompt-bench/promptbench/internal/webapi"
	"github.com/prompt-bench/promptbench/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the benchmark HTTP API server",
		Long: `Start the benchmark HTTP API server.

The server exposes experiments, rankings, consensus, weights,
recommendations, and batch AI evaluation over JSON. AI evaluation endpoints
require OPENAI_API_KEY; without it they respond 503 and everything else
still works.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := loadProject()
			if err != nil {
				return err
			}
			logger := slog.Default()

			var batchJudge webapi.BatchJudge
			if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
				temperature := float32(0)
				if cfg.Judge.Temperature != nil {
					temperature = float32(*cfg.Judge.Temperature)
				}
				j, err := judge.New(store, judge.Config{
					APIKey:      apiKey,
					Model:       cfg.Judge.Model,
					Temperature: temperature,
					Logger:      logger,
				})
				if err != nil {
					return err
				}
				batchJudge = j
			} else {
				logger.Warn("OPENAI_API_KEY not set; AI evaluation endpoints disabled")
			}

			if port == 0 {
				port = cfg.Server.Port
			}

			handlers := webapi.NewHandlers(store, recommend.NewEngine(store), batchJudge, logger)
			server := webserver.New(webserver.Config{
				Port:           port,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         logger,
			}, handlers)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config)")

	return cmd
}
