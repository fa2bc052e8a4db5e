package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [file]",
	Short: "Aggregate a JSON list of classified results",
	Long:  "Reads a JSON array of classified results from file, or stdin when file is omitted or \"-\", and prints the reputation metrics.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var results []domain.SearchResult
	if err := json.NewDecoder(in).Decode(&results); err != nil {
		return fmt.Errorf("decode results: %w", err)
	}

	cfg, _ := loadConfig()
	weights, err := metrics.LoadWeights(cfg.Scoring.WeightsPath)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	aggregator, err := metrics.NewAggregator(weights)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), aggregator.Aggregate(domain.RenumberResults(results)))
}
