package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/concierge/internal/api/handlers"
	"github.com/Veraticus/concierge/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Serve both pipelines over HTTP:

  POST /v1/ai-partner-discovery
  POST /v1/kyc-aml-checker
  GET  /health/live, /health/ready, /metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		RunE: runServe,
	}

	cmd.Flags().Int("port", 8080, "HTTP listen port")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()
	ctx := cmd.Context()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(cfg.Server, logger, server.Handlers{
		Discovery:  handlers.NewDiscoveryHandler(a.discovery, logger),
		Compliance: handlers.NewComplianceHandler(a.compliance, logger),
		Health:     handlers.NewHealthHandler(a.store),
	})

	logger.Info("starting concierge",
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"llm_provider", cfg.LLM.Provider)
	return srv.Run(ctx)
}
