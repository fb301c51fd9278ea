package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	codebaseFlag   string
	rulesFlag      string
	deployRootFlag string
	extensionsFlag []string
	logLevelFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "rootcause",
	Short: "Map production errors to source and flag anomalies",
	Long: `rootcause maps the stack traces in an application log to the source files
they name and scans logs and metrics for abnormal conditions.

Settings are read from the environment (CODEBASE_DIR, RULES_FILE, ...) and
can be overridden with flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&codebaseFlag, "codebase", "", "Source tree to index (default $CODEBASE_DIR)")
	rootCmd.PersistentFlags().StringVar(&rulesFlag, "rules", "", "Rules YAML file (default $RULES_FILE or built-in rules)")
	rootCmd.PersistentFlags().StringVar(&deployRootFlag, "deploy-root", "", "Runtime path prefix stripped from frames (default $DEPLOY_ROOT_PREFIX)")
	rootCmd.PersistentFlags().StringSliceVar(&extensionsFlag, "extensions", nil, "Source file extensions to index (default $SOURCE_EXTENSIONS)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
