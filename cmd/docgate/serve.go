package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docgate/docgate/internal/config"
	"github.com/docgate/docgate/internal/orchestrator"
	"github.com/docgate/docgate/internal/providers"
	"github.com/docgate/docgate/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docgate server",
	Long: `Start the docgate HTTP server.

The server provides:
  - POST /api/v1/ocr              - Extract text from a document image
  - POST /api/v1/analyze          - Classify a document and extract fields
  - GET  /api/v1/providers        - List configured providers
  - GET  /api/v1/providers/health - Provider availability
  - GET  /health                  - Basic server health check

Configuration is hot-reloaded: edits to the config file take effect
without a restart.

Examples:
  docgate serve                    # Start on default port 8080
  docgate serve --port 3000        # Start on custom port
  docgate serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		registry := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig())
		registry.SetLogger(logger)

		orch := orchestrator.New(orchestrator.Config{
			Registry:      registry,
			OCROrder:      cfg.Routing.OCROrder,
			AnalysisOrder: cfg.Routing.AnalysisOrder,
			MaxAttempts:   cfg.Routing.MaxAttempts,
			RetryDelay:    time.Duration(cfg.Routing.RetryDelayMs) * time.Millisecond,
			HealthTTL:     time.Duration(cfg.Routing.HealthTTLSeconds) * time.Second,
			Logger:        logger,
		})

		cm.OnChange(func(newCfg *config.Config) {
			logger.Info("config changed, reloading providers")
			registry.Reload(newCfg.ToProviderRegistryConfig())
			orch.SetRouting(newCfg.Routing.OCROrder, newCfg.Routing.AnalysisOrder)
		})
		cm.WatchConfig()

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:         host,
			Port:         port,
			Orchestrator: orch,
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		// Blocks until shutdown
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
