package analysis

import (
	"fmt"
	"log/slog"

	"github.com/fidde/rootcause/internal/anomaly"
	"github.com/fidde/rootcause/internal/codemap"
	"github.com/fidde/rootcause/internal/config"
	"github.com/fidde/rootcause/internal/sourceindex"
)

// FromConfig loads the rules and the source index named by rt and builds a
// Service over them.
func FromConfig(rt config.Runtime, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rules, err := config.LoadRulesOrDefault(rt.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	idxOpts := []sourceindex.Option{sourceindex.WithLogger(logger)}
	if len(rt.SourceExtensions) > 0 {
		idxOpts = append(idxOpts, sourceindex.WithExtensions(rt.SourceExtensions...))
	}
	idx, err := sourceindex.New(rt.CodebaseDir, idxOpts...)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", rt.CodebaseDir, err)
	}

	var mapOpts []codemap.MapperOption
	if rt.DeployRootPrefix != "" {
		mapOpts = append(mapOpts, codemap.WithDeployRoot(rt.DeployRootPrefix))
	}
	mapper := codemap.NewMapper(idx, mapOpts...)
	return NewService(mapper, anomaly.NewDetector(rules), WithLogger(logger)), nil
}
