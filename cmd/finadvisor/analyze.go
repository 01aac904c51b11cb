package main

import (
	"encoding/json"
	"fmt"

	"finadvisor/internal/advisor"
	"finadvisor/internal/services"

	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the full spending analysis for a file of entries",
		Long: `Print the comprehensive spending analysis for expenditure entries read from a
JSON file. The file holds either an array of entries or an object with an
expenditure_data field.

Examples:
  finadvisor analyze --file expenses.json
  finadvisor analyze --file expenses.json --context "single, 30, renting"
  cat expenses.json | finadvisor analyze --file - --json`,
		Args: cobra.NoArgs,
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("file", "f", "", `JSON file with entries ("-" for stdin)`)
	cmd.Flags().StringP("context", "c", "", "free-text user context for personalized advice")
	cmd.Flags().Bool("json", false, "print the full JSON response instead of the report")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	userContext, _ := cmd.Flags().GetString("context")
	asJSON, _ := cmd.Flags().GetBool("json")
	level, _ := cmd.Flags().GetString("log-level")

	entries, err := readEntries(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	logger := cliLogger(level, cmd.ErrOrStderr())
	service := services.NewAdviceService(advisor.NewGenerator(nil, logger), nil, logger)

	resp, err := service.FullAnalysis(cmd.Context(), entries, userContext)
	if err != nil {
		return fmt.Errorf("full analysis: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err = fmt.Fprintln(out, resp.Response)
	return err
}
