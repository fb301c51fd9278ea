package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/internal/bundle"
)

var (
	promptLog     string
	promptMetrics string
	promptSystem  bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the context bundle that would be sent to the language model",
	Long: `Run the analysis and render the model prompt without calling a model.

Examples:
  rootcause prompt --log payment.log --metrics metrics.json
  rootcause prompt --log payment.log --system`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptLog, "log", "", "Log file, or - for stdin")
	promptCmd.Flags().StringVar(&promptMetrics, "metrics", "", "Metrics snapshot JSON file")
	promptCmd.Flags().BoolVar(&promptSystem, "system", false, "Also print the system prompt")
	_ = promptCmd.MarkFlagRequired("log")
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	svc, _, _, err := newService()
	if err != nil {
		return err
	}

	text, err := readInput(cmd, promptLog)
	if err != nil {
		return err
	}
	metrics, err := readMetrics(cmd, promptMetrics)
	if err != nil {
		return err
	}

	report, err := svc.Analyze(cmd.Context(), analysis.Request{Log: text, Metrics: metrics})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if promptSystem {
		fmt.Fprintf(out, "%s\n\n---\n\n", bundle.SystemPrompt)
	}
	fmt.Fprint(out, bundle.Build(bundle.Input{
		Log:       text,
		Mapping:   &report.Mapping,
		Anomalies: &report.Combined,
	}))
	return nil
}
