package otlpconv

import (
	"sort"
	"strings"
	"time"

	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"

	"github.com/fidde/rootcause/pkg/models"
)

// Metric name suffixes mapped onto MetricSample fields. A prefix such as
// "db." or "app." is tolerated.
const (
	activeConnections = "active_connections"
	errorRate         = "error_rate"
	avgResponseTimeMS = "avg_response_time_ms"
	queueSize         = "queue_size"
)

// Metrics groups the gauge and sum data points of the known series by
// timestamp into samples ordered by time. Other metrics are ignored.
func Metrics(req *colmetricspb.ExportMetricsServiceRequest) models.MetricsSnapshot {
	byTime := make(map[uint64]*models.MetricSample)

	for _, rm := range req.GetResourceMetrics() {
		for _, sm := range rm.GetScopeMetrics() {
			for _, metric := range sm.GetMetrics() {
				field := fieldFor(metric.GetName())
				if field == "" {
					continue
				}
				for _, dp := range numberPoints(metric) {
					ts := dp.GetTimeUnixNano()
					sample, ok := byTime[ts]
					if !ok {
						sample = &models.MetricSample{Time: sampleTime(ts)}
						byTime[ts] = sample
					}
					setField(sample, field, pointValue(dp))
				}
			}
		}
	}

	keys := make([]uint64, 0, len(byTime))
	for ts := range byTime {
		keys = append(keys, ts)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	snapshot := models.MetricsSnapshot{Metrics: make([]models.MetricSample, 0, len(keys))}
	for _, ts := range keys {
		snapshot.Metrics = append(snapshot.Metrics, *byTime[ts])
	}
	return snapshot
}

func fieldFor(name string) string {
	for _, f := range []string{avgResponseTimeMS, activeConnections, errorRate, queueSize} {
		if name == f || strings.HasSuffix(name, "."+f) || strings.HasSuffix(name, "_"+f) {
			return f
		}
	}
	return ""
}

func numberPoints(metric *metricspb.Metric) []*metricspb.NumberDataPoint {
	switch data := metric.Data.(type) {
	case *metricspb.Metric_Gauge:
		return data.Gauge.GetDataPoints()
	case *metricspb.Metric_Sum:
		return data.Sum.GetDataPoints()
	default:
		return nil
	}
}

func pointValue(dp *metricspb.NumberDataPoint) float64 {
	switch v := dp.Value.(type) {
	case *metricspb.NumberDataPoint_AsDouble:
		return v.AsDouble
	case *metricspb.NumberDataPoint_AsInt:
		return float64(v.AsInt)
	default:
		return 0
	}
}

func setField(s *models.MetricSample, field string, v float64) {
	switch field {
	case activeConnections:
		s.ActiveConnections = int(v)
	case errorRate:
		s.ErrorRate = v
	case avgResponseTimeMS:
		s.AvgResponseTimeMS = v
	case queueSize:
		s.QueueSize = int(v)
	}
}

func sampleTime(nanos uint64) string {
	if nanos == 0 {
		return ""
	}
	return time.Unix(0, int64(nanos)).UTC().Format(TimestampLayout)
}
