// Package anomaly classifies abnormal conditions found in log text and
// metric series.
//
// The log scanner and the metric scanner are independent. The log scanner
// returns anomalies in discovery order; the metric scanner sorts its output
// by severity. Combine concatenates the two without re-sorting.
package anomaly

import (
	"sort"
	"strings"

	"github.com/fidde/rootcause/internal/config"
	"github.com/fidde/rootcause/pkg/models"
)

// keywordRule is one entry of the compiled keyword table.
type keywordRule struct {
	severity models.Severity
	keyword  string
	lower    string
}

// Detector runs both scanners against a fixed rule set.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	keywords   []keywordRule
	thresholds config.Thresholds
}

// NewDetector compiles rules into a detector. The rules are copied, so later
// changes to the argument have no effect.
func NewDetector(rules config.Rules) *Detector {
	d := &Detector{thresholds: rules.Thresholds}
	for _, group := range rules.Keywords {
		sev := models.ParseSeverity(group.Severity)
		for _, term := range group.Terms {
			d.keywords = append(d.keywords, keywordRule{
				severity: sev,
				keyword:  term,
				lower:    strings.ToLower(term),
			})
		}
	}
	return d
}

// DefaultDetector returns a detector using config.DefaultRules.
func DefaultDetector() *Detector {
	return NewDetector(config.DefaultRules())
}

// SortBySeverity orders anomalies by descending severity rank in place,
// keeping discovery order among equal ranks.
func SortBySeverity(anomalies []models.Anomaly) {
	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Severity.Rank() > anomalies[j].Severity.Rank()
	})
}

// Combine merges a log scan and a metric scan. Log anomalies come first and
// the result is not re-sorted.
func Combine(logs models.LogAnalysis, metrics models.AnomalyReport) models.AnomalyReport {
	combined := make([]models.Anomaly, 0, len(logs.Anomalies)+len(metrics.Anomalies))
	combined = append(combined, logs.Anomalies...)
	combined = append(combined, metrics.Anomalies...)

	return models.AnomalyReport{
		TotalAnomalies: logs.TotalAnomalies + metrics.TotalAnomalies,
		Anomalies:      combined,
	}
}
