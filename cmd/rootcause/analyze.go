package main

import (
	"github.com/spf13/cobra"

	"github.com/fidde/rootcause/internal/analysis"
)

var (
	analyzeLogs    []string
	analyzeMetrics string
	analyzeFormat  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Map a log to source and scan it and its metrics for anomalies",
	Long: `Run both engines over one incident and print the combined report.

Examples:
  rootcause analyze --log payment.log
  rootcause analyze --log payment.log --metrics metrics.json --format=human
  rootcause analyze --log payment.log --log database.log
  cat payment.log | rootcause analyze --log -

Repeating --log scans the files as one blob, each under a
"=== <name> Log ===" header.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringArrayVar(&analyzeLogs, "log", nil, "Log file, or - for stdin (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeMetrics, "metrics", "", "Metrics snapshot JSON file")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "Output format (json, human)")
	_ = analyzeCmd.MarkFlagRequired("log")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	svc, _, _, err := newService()
	if err != nil {
		return err
	}

	text, err := readLogs(cmd, analyzeLogs)
	if err != nil {
		return err
	}
	metrics, err := readMetrics(cmd, analyzeMetrics)
	if err != nil {
		return err
	}

	report, err := svc.Analyze(cmd.Context(), analysis.Request{Log: text, Metrics: metrics})
	if err != nil {
		return err
	}
	return printResponse(cmd, &report, analyzeFormat)
}
