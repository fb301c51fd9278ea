package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	anomaliesLog     string
	anomaliesMetrics string
	anomaliesFormat  string
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Scan a log or a metrics snapshot for anomalies",
	Long: `Run one anomaly scanner. Log anomalies keep discovery order; metric
anomalies are sorted by severity.

Examples:
  rootcause anomalies --log db.log
  rootcause anomalies --metrics metrics.json --format=human`,
	Args: cobra.NoArgs,
	RunE: runAnomalies,
}

func init() {
	anomaliesCmd.Flags().StringVar(&anomaliesLog, "log", "", "Log file, or - for stdin")
	anomaliesCmd.Flags().StringVar(&anomaliesMetrics, "metrics", "", "Metrics snapshot JSON file")
	anomaliesCmd.Flags().StringVar(&anomaliesFormat, "format", "json", "Output format (json, human)")
	anomaliesCmd.MarkFlagsMutuallyExclusive("log", "metrics")
	rootCmd.AddCommand(anomaliesCmd)
}

func runAnomalies(cmd *cobra.Command, args []string) error {
	if anomaliesLog == "" && anomaliesMetrics == "" {
		return errors.New("one of --log or --metrics is required")
	}

	svc, _, _, err := newService()
	if err != nil {
		return err
	}

	if anomaliesLog != "" {
		text, err := readInput(cmd, anomaliesLog)
		if err != nil {
			return err
		}
		result := svc.Detector().AnalyzeLogs(text)
		return printResponse(cmd, &result, anomaliesFormat)
	}

	snapshot, err := readMetrics(cmd, anomaliesMetrics)
	if err != nil {
		return err
	}
	report := svc.Detector().AnalyzeMetrics(*snapshot)
	return printResponse(cmd, &report, anomaliesFormat)
}
