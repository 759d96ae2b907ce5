package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docgate/docgate/internal/config"
	"github.com/docgate/docgate/internal/orchestrator"
	"github.com/docgate/docgate/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Probe configured AI providers and print their availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
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
			HealthTTL:     time.Duration(cfg.Routing.HealthTTLSeconds) * time.Second,
			Logger:        logger,
		})

		health := orch.RefreshHealth(ctx)

		names := make([]string, 0, len(health))
		for name := range health {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tAVAILABLE\tCHECKED")
		for _, name := range names {
			h := health[name]
			fmt.Fprintf(tw, "%s\t%t\t%s\n", h.Name, h.Available, h.CheckedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
