// Package main provides the reputationscanner command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ReputationScanner/internal/app"
	"ReputationScanner/internal/config"
	"ReputationScanner/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "reputationscanner",
	Short:        "Search reputation scanner",
	Long:         "Retrieves ranked search results for monitored names, classifies their sentiment and scores the reputation of each engine's first page.",
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger) {
	cfg := config.Load()
	return cfg, logging.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
}

func openApp(ctx context.Context) (*app.Application, error) {
	cfg, logger := loadConfig()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init application: %w", err)
	}
	return application, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
