package main

import (
	"github.com/spf13/cobra"
)

var (
	mapLog    string
	mapFormat string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map the stack trace in a log to source",
	Long: `Extract the stack frames from a log and show the source around each one.

Examples:
  rootcause map --log payment.log
  rootcause map --codebase ./src --deploy-root /srv/ --log - --format=human`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVar(&mapLog, "log", "", "Log file, or - for stdin")
	mapCmd.Flags().StringVar(&mapFormat, "format", "json", "Output format (json, human)")
	_ = mapCmd.MarkFlagRequired("log")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	svc, _, _, err := newService()
	if err != nil {
		return err
	}

	text, err := readInput(cmd, mapLog)
	if err != nil {
		return err
	}

	mapping := svc.Mapper().Map(text)
	return printResponse(cmd, &mapping, mapFormat)
}
