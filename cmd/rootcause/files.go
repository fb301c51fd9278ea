package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var filesFormat string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed source files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, _, err := newService()
		if err != nil {
			return err
		}
		return printResponse(cmd, svc.Mapper().Files(), filesFormat)
	},
}

var showFunction string

var showCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print an indexed file, or one function definition in it",
	Long: `Print the content of an indexed file. Paths are index keys as listed by
"rootcause files".

Examples:
  rootcause show dummy_data/codebase/database_manager.py
  rootcause show dummy_data/codebase/database_manager.py --function execute_transaction`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	filesCmd.Flags().StringVar(&filesFormat, "format", "human", "Output format (json, human)")
	showCmd.Flags().StringVar(&showFunction, "function", "", "Show only this function's definition line")
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, _, _, err := newService()
	if err != nil {
		return err
	}
	path := args[0]

	if showFunction != "" {
		def, ok := svc.Mapper().FindDefinition(path, showFunction)
		if !ok {
			return fmt.Errorf("function %s not found in %s", showFunction, path)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", def.File, def.Line, def.Definition)
		return nil
	}

	content, ok := svc.Mapper().FileContent(path)
	if !ok {
		return fmt.Errorf("file not indexed: %s", path)
	}
	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}
