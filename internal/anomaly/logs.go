package anomaly

import (
	"regexp"
	"strings"

	"github.com/fidde/rootcause/pkg/models"
)

// timestampPattern matches 2024-10-17 09:15:45,145
var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}`)

// AnalyzeLogs scans text line by line.
//
// Lines containing ERROR or CRITICAL are counted as errors and matched
// against every keyword; each matching keyword yields its own anomaly.
// Lines containing WARNING are counted separately. Anomalies are returned in
// discovery order.
func (d *Detector) AnalyzeLogs(text string) models.LogAnalysis {
	result := models.LogAnalysis{Anomalies: []models.Anomaly{}}

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "ERROR") || strings.Contains(line, "CRITICAL") {
			result.ErrorCount++

			lower := strings.ToLower(line)
			ts := ExtractTimestamp(line)
			trimmed := strings.TrimSpace(line)

			for _, rule := range d.keywords {
				if !strings.Contains(lower, rule.lower) {
					continue
				}
				result.Anomalies = append(result.Anomalies, models.Anomaly{
					Type:      models.AnomalyLogPattern,
					Severity:  rule.severity,
					Keyword:   rule.keyword,
					Line:      trimmed,
					Timestamp: ts,
				})
				if rule.severity == models.SeverityCritical {
					result.CriticalCount++
				}
			}
		}

		if strings.Contains(line, "WARNING") {
			result.WarningCount++
		}
	}

	result.TotalAnomalies = len(result.Anomalies)
	return result
}

// ExtractTimestamp returns the first log timestamp in line, or
// models.UnknownTimestamp.
func ExtractTimestamp(line string) string {
	if ts := timestampPattern.FindString(line); ts != "" {
		return ts
	}
	return models.UnknownTimestamp
}
