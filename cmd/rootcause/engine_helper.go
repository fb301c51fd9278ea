package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/internal/bundle"
	"github.com/fidde/rootcause/internal/config"
	"github.com/fidde/rootcause/pkg/models"
)

// runtimeConfig reads the environment and applies the persistent flags.
func runtimeConfig() (config.Runtime, error) {
	rt, err := config.FromEnv()
	if err != nil {
		return config.Runtime{}, err
	}
	if codebaseFlag != "" {
		rt.CodebaseDir = codebaseFlag
	}
	if rulesFlag != "" {
		rt.RulesFile = rulesFlag
	}
	if deployRootFlag != "" {
		rt.DeployRootPrefix = deployRootFlag
	}
	if len(extensionsFlag) > 0 {
		rt.SourceExtensions = extensionsFlag
	}
	if logLevelFlag != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevelFlag)); err != nil {
			return config.Runtime{}, fmt.Errorf("parsing --log-level: %w", err)
		}
		rt.LogLevel = level
	}
	return rt, nil
}

// newService builds the analysis service for a command. CLI logs go to
// stderr at warn level unless asked otherwise.
func newService() (*analysis.Service, config.Runtime, *slog.Logger, error) {
	rt, err := runtimeConfig()
	if err != nil {
		return nil, config.Runtime{}, nil, err
	}
	if logLevelFlag == "" && rt.LogLevel < slog.LevelWarn {
		rt.LogLevel = slog.LevelWarn
	}
	logger := rt.NewLogger()

	svc, err := analysis.FromConfig(rt, logger)
	if err != nil {
		return nil, config.Runtime{}, nil, err
	}
	return svc, rt, logger, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// readLogs reads one log as is, or labels and joins several.
func readLogs(cmd *cobra.Command, paths []string) (string, error) {
	if len(paths) == 1 {
		return readInput(cmd, paths[0])
	}
	sources := make([]bundle.Source, 0, len(paths))
	stdin := false
	for _, path := range paths {
		if path == "-" {
			if stdin {
				return "", errors.New("stdin (-) can be given to --log only once")
			}
			stdin = true
		}
		text, err := readInput(cmd, path)
		if err != nil {
			return "", err
		}
		name := "stdin"
		if path != "-" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		sources = append(sources, bundle.Source{Name: name, Text: text})
	}
	return bundle.CombineLogs(sources...), nil
}

// readMetrics loads a metrics snapshot JSON file, or returns nil for "".
func readMetrics(cmd *cobra.Command, path string) (*models.MetricsSnapshot, error) {
	if path == "" {
		return nil, nil
	}
	text, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	var snapshot models.MetricsSnapshot
	if err := json.Unmarshal([]byte(text), &snapshot); err != nil {
		return nil, fmt.Errorf("parsing metrics %s: %w", path, err)
	}
	return &snapshot, nil
}

// printResponse formats resp and writes it to the command's output.
func printResponse(cmd *cobra.Command, resp interface{}, format string) error {
	output, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
