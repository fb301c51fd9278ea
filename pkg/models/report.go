package models

import "time"

// AnalysisReport combines the outputs of both engines for one request.
type AnalysisReport struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	// Excerpt is the slice of the log shown to humans and the LLM.
	Excerpt string `json:"excerpt"`

	Mapping CodeMapping   `json:"mapping"`
	Logs    LogAnalysis   `json:"logs"`
	Metrics AnomalyReport `json:"metrics"`

	// Combined concatenates log anomalies then metric anomalies.
	// It is not re-sorted across the two sources.
	Combined AnomalyReport  `json:"combined"`
	Counts   SeverityCounts `json:"severity_counts"`
}
