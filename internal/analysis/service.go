// Package analysis runs the code mapper and the anomaly detector for one
// incident and assembles the combined report.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fidde/rootcause/internal/anomaly"
	"github.com/fidde/rootcause/internal/bundle"
	"github.com/fidde/rootcause/internal/codemap"
	"github.com/fidde/rootcause/internal/llm"
	"github.com/fidde/rootcause/pkg/models"
)

// Request is the input of one analysis. Metrics is optional.
type Request struct {
	Log     string                  `json:"log"`
	Metrics *models.MetricsSnapshot `json:"metrics,omitempty"`
}

// Explanation is a report plus the model's narrative.
type Explanation struct {
	Report        models.AnalysisReport `json:"report"`
	Analysis      llm.Result            `json:"analysis"`
	Summary       string                `json:"summary,omitempty"`
	RelatedIssues []string              `json:"related_issues,omitempty"`
}

// Service is safe for concurrent use.
type Service struct {
	mapper   *codemap.Mapper
	detector *anomaly.Detector
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service over the given engines.
func NewService(mapper *codemap.Mapper, detector *anomaly.Detector, opts ...Option) *Service {
	s := &Service{
		mapper:   mapper,
		detector: detector,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mapper returns the code mapper the service runs.
func (s *Service) Mapper() *codemap.Mapper { return s.mapper }

// Detector returns the anomaly detector the service runs.
func (s *Service) Detector() *anomaly.Detector { return s.detector }

// Analyze maps the log to code and scans the log and metrics for anomalies.
// The three passes run concurrently; the only error is ctx's.
func (s *Service) Analyze(ctx context.Context, req Request) (models.AnalysisReport, error) {
	var (
		mapping models.CodeMapping
		logs    models.LogAnalysis
		metrics models.AnomalyReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		mapping = s.mapper.Map(req.Log)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		logs = s.detector.AnalyzeLogs(req.Log)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var snapshot models.MetricsSnapshot
		if req.Metrics != nil {
			snapshot = *req.Metrics
		}
		metrics = s.detector.AnalyzeMetrics(snapshot)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.AnalysisReport{}, err
	}

	combined := anomaly.Combine(logs, metrics)
	report := models.AnalysisReport{
		ID:          uuid.NewString(),
		GeneratedAt: s.now().UTC(),
		Excerpt:     bundle.Excerpt(req.Log),
		Mapping:     mapping,
		Logs:        logs,
		Metrics:     metrics,
		Combined:    combined,
		Counts:      combined.Counts(),
	}

	s.logger.Debug("Analysis complete",
		"id", report.ID,
		"status", mapping.Status,
		"frames", len(mapping.StackTrace),
		"contexts", len(mapping.CodeContexts),
		"anomalies", combined.TotalAnomalies,
		"critical", report.Counts.Critical)

	return report, nil
}

// Explain runs Analyze and asks analyst for the narrative, an incident
// summary and related issues. A failed model call is reported inside the
// Explanation, not as an error.
func (s *Service) Explain(ctx context.Context, analyst llm.Analyst, req Request) (Explanation, error) {
	report, err := s.Analyze(ctx, req)
	if err != nil {
		return Explanation{}, err
	}

	mapping := report.Mapping
	result := analyst.AnalyzeError(ctx, bundle.Input{
		Log:       req.Log,
		Mapping:   &mapping,
		Anomalies: &report.Combined,
	})

	exp := Explanation{Report: report, Analysis: result}
	if !result.Success {
		s.logger.Warn("Narrative analysis failed", "id", report.ID, "error", result.Error)
		return exp, nil
	}

	exp.Summary = analyst.IncidentSummary(ctx, report.Excerpt, result.Analysis)
	if mapping.Found() && mapping.ErrorType != "" {
		exp.RelatedIssues = analyst.RelatedIssues(ctx, mapping.ErrorType)
	}
	return exp, nil
}
