package models

// MetricSample is one point of the system metric series.
// Absent fields decode to zero and cannot breach their threshold.
type MetricSample struct {
	Time              string  `json:"time,omitempty"`
	ActiveConnections int     `json:"active_connections"`
	ErrorRate         float64 `json:"error_rate"`
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
	QueueSize         int     `json:"queue_size"`
}

// SuppliedAnomaly is a pre-classified anomaly carried in a metrics payload.
type SuppliedAnomaly struct {
	Type        string `json:"type,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Description string `json:"description,omitempty"`
}

// MetricsSnapshot is the structured metrics input.
type MetricsSnapshot struct {
	Metrics   []MetricSample    `json:"metrics,omitempty"`
	Anomalies []SuppliedAnomaly `json:"anomalies,omitempty"`
}

// Empty reports whether the snapshot carries nothing to scan.
func (s MetricsSnapshot) Empty() bool {
	return len(s.Metrics) == 0 && len(s.Anomalies) == 0
}
