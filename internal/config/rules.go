// Package config holds the rule tables used by the anomaly detector and the
// runtime configuration read from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordGroup lists the log keywords assigned to one severity.
type KeywordGroup struct {
	Severity string   `yaml:"severity"`
	Terms    []string `yaml:"terms"`
}

// Threshold is a two-level metric limit. Values >= Medium breach; values
// >= High breach with HIGH severity.
type Threshold struct {
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// Breach reports whether v crosses the threshold and whether it is high.
func (t Threshold) Breach(v float64) (breached, high bool) {
	if v < t.Medium {
		return false, false
	}
	return true, v >= t.High
}

// Thresholds is the metric threshold table.
type Thresholds struct {
	// MaxConnections is the pool size used to compute pool usage.
	MaxConnections      int       `yaml:"max_connections"`
	ConnectionPoolUsage Threshold `yaml:"connection_pool_usage"`
	ErrorRate           Threshold `yaml:"error_rate"`
	AvgResponseTimeMS   Threshold `yaml:"avg_response_time_ms"`
	QueueSize           Threshold `yaml:"queue_size"`
}

// Rules is the full detector configuration. Keyword groups are evaluated in
// slice order.
type Rules struct {
	Keywords   []KeywordGroup `yaml:"keywords"`
	Thresholds Thresholds     `yaml:"thresholds"`
}

// DefaultRules returns the built-in tables.
func DefaultRules() Rules {
	return Rules{
		Keywords: []KeywordGroup{
			{Severity: "CRITICAL", Terms: []string{"deadlock", "pool exhausted", "timeout exceeded", "connection failed"}},
			{Severity: "HIGH", Terms: []string{"lock timeout", "transaction failed", "rollback", "wait timeout"}},
			{Severity: "MEDIUM", Terms: []string{"lock contention", "waiting for lock", "connection queued"}},
			{Severity: "LOW", Terms: []string{"warning", "retry", "slow query"}},
		},
		Thresholds: Thresholds{
			MaxConnections:      10,
			ConnectionPoolUsage: Threshold{Medium: 0.8, High: 0.9},
			ErrorRate:           Threshold{Medium: 0.15, High: 0.25},
			AvgResponseTimeMS:   Threshold{Medium: 500, High: 1000},
			QueueSize:           Threshold{Medium: 3, High: 5},
		},
	}
}

// LoadRules reads a YAML rules file. Sections missing from the file keep
// their defaults; a keywords section replaces the whole keyword table.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parsing rules YAML: %w", err)
	}

	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("validating rules %s: %w", path, err)
	}
	return rules, nil
}

// LoadRulesOrDefault loads path when set, otherwise returns DefaultRules.
func LoadRulesOrDefault(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	return LoadRules(path)
}

var knownSeverities = map[string]bool{
	"CRITICAL": true,
	"HIGH":     true,
	"MEDIUM":   true,
	"LOW":      true,
}

// Validate checks the tables for values the detector cannot use.
func (r Rules) Validate() error {
	var errs []error
	for i, g := range r.Keywords {
		if !knownSeverities[strings.ToUpper(g.Severity)] {
			errs = append(errs, fmt.Errorf("keywords[%d]: unknown severity %q", i, g.Severity))
		}
		for j, term := range g.Terms {
			if strings.TrimSpace(term) == "" {
				errs = append(errs, fmt.Errorf("keywords[%d].terms[%d]: empty term", i, j))
			}
		}
	}

	if r.Thresholds.MaxConnections <= 0 {
		errs = append(errs, errors.New("thresholds.max_connections must be positive"))
	}
	for name, t := range map[string]Threshold{
		"connection_pool_usage": r.Thresholds.ConnectionPoolUsage,
		"error_rate":            r.Thresholds.ErrorRate,
		"avg_response_time_ms":  r.Thresholds.AvgResponseTimeMS,
		"queue_size":            r.Thresholds.QueueSize,
	} {
		if t.High < t.Medium {
			errs = append(errs, fmt.Errorf("thresholds.%s: high %v below medium %v", name, t.High, t.Medium))
		}
	}
	return errors.Join(errs...)
}
