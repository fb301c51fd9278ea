package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/internal/llm"
)

var (
	explainLog     string
	explainMetrics string
	explainFormat  string
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Analyze an incident and ask the language model for a narrative",
	Long: `Run the analysis, send the context bundle to the configured model and
print the report with the model's root-cause narrative.

Requires AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT and
AZURE_OPENAI_DEPLOYMENT_NAME, or OPENAI_API_KEY.

Examples:
  rootcause explain --log payment.log --metrics metrics.json --format=human`,
	Args: cobra.NoArgs,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainLog, "log", "", "Log file, or - for stdin")
	explainCmd.Flags().StringVar(&explainMetrics, "metrics", "", "Metrics snapshot JSON file")
	explainCmd.Flags().StringVar(&explainFormat, "format", "human", "Output format (json, human)")
	_ = explainCmd.MarkFlagRequired("log")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	svc, rt, logger, err := newService()
	if err != nil {
		return err
	}

	analyst, err := llm.New(rt.LLM, llm.WithLogger(logger))
	if errors.Is(err, llm.ErrNotConfigured) {
		return errors.New("no language model configured: set AZURE_OPENAI_* or OPENAI_API_KEY")
	}
	if err != nil {
		return err
	}

	text, err := readInput(cmd, explainLog)
	if err != nil {
		return err
	}
	metrics, err := readMetrics(cmd, explainMetrics)
	if err != nil {
		return err
	}

	exp, err := svc.Explain(cmd.Context(), analyst, analysis.Request{Log: text, Metrics: metrics})
	if err != nil {
		return err
	}
	return printResponse(cmd, &exp, explainFormat)
}
