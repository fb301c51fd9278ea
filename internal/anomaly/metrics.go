package anomaly

import (
	"fmt"
	"strconv"

	"github.com/fidde/rootcause/pkg/models"
)

// AnalyzeMetrics tests every sample against the threshold table and passes
// supplied anomalies through. The result is sorted by severity.
func (d *Detector) AnalyzeMetrics(snapshot models.MetricsSnapshot) models.AnomalyReport {
	anomalies := []models.Anomaly{}

	for _, sample := range snapshot.Metrics {
		anomalies = append(anomalies, d.scanSample(sample)...)
	}

	for _, s := range snapshot.Anomalies {
		anomalies = append(anomalies, supplied(s))
	}

	SortBySeverity(anomalies)
	return models.AnomalyReport{
		TotalAnomalies: len(anomalies),
		Anomalies:      anomalies,
	}
}

// scanSample checks the four thresholds independently.
func (d *Detector) scanSample(s models.MetricSample) []models.Anomaly {
	var out []models.Anomaly
	th := d.thresholds

	ts := s.Time
	if ts == "" {
		ts = models.UnknownTimestamp
	}

	if th.MaxConnections > 0 {
		usage := float64(s.ActiveConnections) / float64(th.MaxConnections)
		if breached, high := th.ConnectionPoolUsage.Breach(usage); breached {
			out = append(out, models.Anomaly{
				Type:      models.AnomalyConnectionPoolHigh,
				Severity:  severityFor(high),
				Timestamp: ts,
				Value:     fmt.Sprintf("%d/%d (%.0f%%)", s.ActiveConnections, th.MaxConnections, usage*100),
				Message:   fmt.Sprintf("Connection pool usage at %.0f%%", usage*100),
			})
		}
	}

	if breached, high := th.ErrorRate.Breach(s.ErrorRate); breached {
		out = append(out, models.Anomaly{
			Type:      models.AnomalyErrorRateHigh,
			Severity:  severityFor(high),
			Timestamp: ts,
			Value:     fmt.Sprintf("%.1f%%", s.ErrorRate*100),
			Message:   fmt.Sprintf("Error rate at %.1f%%", s.ErrorRate*100),
		})
	}

	if breached, high := th.AvgResponseTimeMS.Breach(s.AvgResponseTimeMS); breached {
		ms := strconv.FormatFloat(s.AvgResponseTimeMS, 'f', -1, 64)
		out = append(out, models.Anomaly{
			Type:      models.AnomalyResponseTimeHigh,
			Severity:  severityFor(high),
			Timestamp: ts,
			Value:     ms + "ms",
			Message:   "Average response time at " + ms + "ms",
		})
	}

	if breached, high := th.QueueSize.Breach(float64(s.QueueSize)); breached {
		out = append(out, models.Anomaly{
			Type:      models.AnomalyQueueSizeHigh,
			Severity:  severityFor(high),
			Timestamp: ts,
			Value:     strconv.Itoa(s.QueueSize),
			Message:   fmt.Sprintf("Connection queue size at %d", s.QueueSize),
		})
	}

	return out
}

func severityFor(high bool) models.Severity {
	if high {
		return models.SeverityHigh
	}
	return models.SeverityMedium
}

// supplied converts a pre-classified anomaly, filling defaults.
func supplied(s models.SuppliedAnomaly) models.Anomaly {
	a := models.Anomaly{
		Type:      models.AnomalyType(s.Type),
		Severity:  models.ParseSeverity(s.Severity),
		Timestamp: s.Timestamp,
		Message:   s.Description,
	}
	if a.Type == "" {
		a.Type = models.AnomalyUnknown
	}
	if a.Timestamp == "" {
		a.Timestamp = models.UnknownTimestamp
	}
	if a.Message == "" {
		a.Message = "Unknown anomaly"
	}
	return a
}
