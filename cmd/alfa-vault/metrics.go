package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfa-vault/alfa/config"
	"github.com/alfa-vault/alfa/internal/metrics"
)

var metricsConfigDir string

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve the Prometheus metrics endpoint using config/ settings",
	RunE:  runServeMetrics,
}

func init() {
	rootCmd.AddCommand(serveMetricsCmd)
	serveMetricsCmd.Flags().StringVar(&metricsConfigDir, "config-dir", "config", "directory holding <env>.yaml/default.yaml and .env")
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: metricsConfigDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Metrics.Enabled {
		fmt.Println("metrics disabled in config, nothing to serve")
		return nil
	}

	fmt.Printf("serving metrics on %s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	return metrics.StartServer(cfg.Metrics.Addr, cfg.Metrics.Path)
}
