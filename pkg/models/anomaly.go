package models

import (
	"fmt"
	"strings"
)

// Severity classifies an anomaly. Values outside the known set are kept
// verbatim and rank as unknown.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityUnknown  Severity = "UNKNOWN"
)

// Rank returns the sort weight: CRITICAL=4 down to LOW=1, anything else 0.
func (s Severity) Rank() int {
	switch Severity(strings.ToUpper(string(s))) {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Color returns the display colour used by front ends.
func (s Severity) Color() string {
	switch Severity(strings.ToUpper(string(s))) {
	case SeverityCritical:
		return "#FF0000"
	case SeverityHigh:
		return "#FF6B6B"
	case SeverityMedium:
		return "#FFA500"
	case SeverityLow:
		return "#FFD700"
	default:
		return "#808080"
	}
}

// ParseSeverity upper-cases s. Empty input maps to MEDIUM, the default for
// externally supplied anomalies.
func ParseSeverity(s string) Severity {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return SeverityMedium
	}
	return Severity(s)
}

// AnomalyType tags the kind of anomaly.
type AnomalyType string

const (
	AnomalyLogPattern         AnomalyType = "log_pattern"
	AnomalyConnectionPoolHigh AnomalyType = "connection_pool_high"
	AnomalyErrorRateHigh      AnomalyType = "error_rate_high"
	AnomalyResponseTimeHigh   AnomalyType = "response_time_high"
	AnomalyQueueSizeHigh      AnomalyType = "queue_size_high"
	AnomalyUnknown            AnomalyType = "unknown"
)

// UnknownTimestamp marks a missing timestamp.
const UnknownTimestamp = "unknown"

// Anomaly is one abnormal condition found in logs or metrics.
// Keyword and Line are set for log_pattern anomalies; Value and Message for
// metric-derived ones. Supplied anomalies carry only Message.
type Anomaly struct {
	Type      AnomalyType `json:"type"`
	Severity  Severity    `json:"severity"`
	Timestamp string      `json:"timestamp"`
	Keyword   string      `json:"keyword,omitempty"`
	Line      string      `json:"line,omitempty"`
	Value     string      `json:"value,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// Describe returns a one-line display message for the anomaly.
func (a Anomaly) Describe() string {
	switch {
	case a.Message != "":
		return a.Message
	case a.Keyword != "":
		return fmt.Sprintf("Detected '%s' pattern in logs", a.Keyword)
	case a.Line != "":
		r := []rune(a.Line)
		if len(r) > 100 {
			r = r[:100]
		}
		return string(r)
	default:
		t := a.Type
		if t == "" {
			t = "Unknown"
		}
		return fmt.Sprintf("%s anomaly", t)
	}
}

// LogAnalysis is the output of the log-pattern scan.
// Anomalies are in discovery order.
type LogAnalysis struct {
	TotalAnomalies int       `json:"total_anomalies"`
	ErrorCount     int       `json:"error_count"`
	WarningCount   int       `json:"warning_count"`
	CriticalCount  int       `json:"critical_count"`
	Anomalies      []Anomaly `json:"anomalies"`
}

// Report returns the scan as an AnomalyReport without reordering.
func (l LogAnalysis) Report() AnomalyReport {
	return AnomalyReport{
		TotalAnomalies: l.TotalAnomalies,
		Anomalies:      l.Anomalies,
	}
}

// AnomalyReport is a counted anomaly sequence.
type AnomalyReport struct {
	TotalAnomalies int       `json:"total_anomalies"`
	Anomalies      []Anomaly `json:"anomalies"`
}

// SeverityCounts summarises a report for display.
type SeverityCounts struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Counts tallies the report's anomalies by severity.
func (r AnomalyReport) Counts() SeverityCounts {
	c := SeverityCounts{Total: r.TotalAnomalies}
	for _, a := range r.Anomalies {
		switch Severity(strings.ToUpper(string(a.Severity))) {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
	return c
}

// Top returns at most n anomalies from the head of the report.
func (r AnomalyReport) Top(n int) []Anomaly {
	if n < 0 || n >= len(r.Anomalies) {
		return r.Anomalies
	}
	return r.Anomalies[:n]
}
