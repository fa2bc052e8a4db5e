package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ReputationScanner/internal/app"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the sentiment of a single search result",
	RunE:  runClassify,
}

var (
	classifyTitle   string
	classifySnippet string
	classifyURL     string
)

func init() {
	classifyCmd.Flags().StringVarP(&classifyTitle, "title", "t", "", "Result title")
	classifyCmd.Flags().StringVarP(&classifySnippet, "snippet", "s", "", "Result snippet")
	classifyCmd.Flags().StringVarP(&classifyURL, "url", "u", "", "Result URL")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	if classifyTitle == "" && classifySnippet == "" {
		return fmt.Errorf("--title or --snippet is required")
	}

	cfg, logger := loadConfig()
	svc := app.NewClassifier(cmd.Context(), cfg, logger)
	defer svc.Close()

	return printJSON(cmd.OutOrStdout(), svc.Classify(cmd.Context(), classifyTitle, classifySnippet, classifyURL))
}
