// Package receiver implements OTLP HTTP and gRPC endpoints. Every export is
// converted, analyzed once and handed to a Sink; nothing is stored.
package receiver

import (
	"context"
	"log/slog"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/internal/otlpconv"
	"github.com/fidde/rootcause/pkg/models"
)

// Signal names the OTLP signal an export carried.
type Signal string

const (
	SignalLogs    Signal = "logs"
	SignalMetrics Signal = "metrics"
	SignalTraces  Signal = "traces"
)

// Result is one analyzed export.
type Result struct {
	Signal    Signal
	Transport string
	// Records is the number of log records, exception events or metric
	// samples the analysis ran over.
	Records int
	Report  models.AnalysisReport
}

// Pipeline converts exports and runs the analysis service over them.
type Pipeline struct {
	svc    *analysis.Service
	sink   Sink
	logger *slog.Logger
}

// NewPipeline creates a pipeline. A nil sink logs results to logger.
func NewPipeline(svc *analysis.Service, sink Sink, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = &LogSink{Logger: logger}
	}
	return &Pipeline{svc: svc, sink: sink, logger: logger}
}

// Logs analyzes a logs export. Empty exports are acknowledged without
// analysis.
func (p *Pipeline) Logs(ctx context.Context, transport string, req *collogspb.ExportLogsServiceRequest) error {
	n := otlpconv.LogRecordCount(req)
	if n == 0 {
		return nil
	}
	return p.run(ctx, Result{Signal: SignalLogs, Transport: transport, Records: n},
		analysis.Request{Log: otlpconv.Logs(req)})
}

// Traces analyzes the exception events of a traces export.
func (p *Pipeline) Traces(ctx context.Context, transport string, req *coltracepb.ExportTraceServiceRequest) error {
	n := otlpconv.ExceptionCount(req)
	if n == 0 {
		return nil
	}
	return p.run(ctx, Result{Signal: SignalTraces, Transport: transport, Records: n},
		analysis.Request{Log: otlpconv.Traces(req)})
}

// Metrics analyzes the known metric series of a metrics export.
func (p *Pipeline) Metrics(ctx context.Context, transport string, req *colmetricspb.ExportMetricsServiceRequest) error {
	snapshot := otlpconv.Metrics(req)
	if snapshot.Empty() {
		return nil
	}
	return p.run(ctx, Result{Signal: SignalMetrics, Transport: transport, Records: len(snapshot.Metrics)},
		analysis.Request{Metrics: &snapshot})
}

func (p *Pipeline) run(ctx context.Context, res Result, req analysis.Request) error {
	report, err := p.svc.Analyze(ctx, req)
	if err != nil {
		p.logger.Warn("Export analysis aborted", "signal", res.Signal, "transport", res.Transport, "error", err)
		return err
	}
	res.Report = report
	p.sink.Consume(ctx, res)
	return nil
}
