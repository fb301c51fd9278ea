package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fidde/rootcause/internal/anomaly"
	"github.com/fidde/rootcause/internal/bundle"
	"github.com/fidde/rootcause/internal/codemap"
	"github.com/fidde/rootcause/internal/llm"
	"github.com/fidde/rootcause/internal/sourceindex"
	"github.com/fidde/rootcause/pkg/models"
)

const incidentLog = `2024-01-15 14:23:45,123 INFO Starting payment batch
2024-01-15 14:23:47,456 ERROR Deadlock detected, transaction rollback
Traceback (most recent call last):
  File "/app/dummy_data/codebase/payment_processor.py", line 3, in process_payment
    self.db.execute_transaction(queries)
  File "/app/dummy_data/codebase/database_manager.py", line 4, in execute_transaction
    raise Exception("Lock wait timeout")
Exception: Lock wait timeout exceeded`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	codebase := filepath.Join(t.TempDir(), "dummy_data", "codebase")
	if err := os.MkdirAll(codebase, 0755); err != nil {
		t.Fatalf("Failed to create codebase: %v", err)
	}
	files := map[string]string{
		"payment_processor.py": "class PaymentProcessor:\n    def process_payment(self):\n        self.db.execute_transaction(queries)\n",
		"database_manager.py":  "class DatabaseManager:\n    def execute_transaction(self, queries):\n        cursor.execute(q)\n        raise Exception(\"Lock wait timeout\")\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(codebase, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	idx, err := sourceindex.New(codebase, sourceindex.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}

	fixed := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return NewService(codemap.NewMapper(idx), anomaly.DefaultDetector(),
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixed }))
}

func TestAnalyze(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.Analyze(context.Background(), Request{
		Log: incidentLog,
		Metrics: &models.MetricsSnapshot{
			Metrics: []models.MetricSample{{Time: "14:23", ActiveConnections: 10, ErrorRate: 0.3}},
		},
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.ID == "" {
		t.Error("Expected a report ID")
	}
	if !report.GeneratedAt.Equal(time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)) {
		t.Errorf("Unexpected GeneratedAt %v", report.GeneratedAt)
	}

	if !report.Mapping.Found() {
		t.Fatalf("Expected a mapped trace, got %+v", report.Mapping)
	}
	if len(report.Mapping.CodeContexts) != 2 {
		t.Errorf("Expected 2 code contexts, got %d", len(report.Mapping.CodeContexts))
	}
	if rc := report.Mapping.RootCause; rc == nil || rc.Function != "execute_transaction" || rc.Line != 4 {
		t.Errorf("Unexpected root cause %+v", rc)
	}

	// deadlock and rollback on the ERROR line; trace lines are not scanned.
	if report.Logs.TotalAnomalies != 2 {
		t.Errorf("Expected 2 log anomalies, got %d", report.Logs.TotalAnomalies)
	}
	if report.Metrics.TotalAnomalies != 2 {
		t.Errorf("Expected 2 metric anomalies, got %d", report.Metrics.TotalAnomalies)
	}

	if report.Combined.TotalAnomalies != 4 || len(report.Combined.Anomalies) != 4 {
		t.Fatalf("Expected 4 combined anomalies, got %d", report.Combined.TotalAnomalies)
	}
	if report.Combined.Anomalies[0].Type != models.AnomalyLogPattern {
		t.Errorf("Log anomalies should come first, got %s", report.Combined.Anomalies[0].Type)
	}
	if report.Counts.Total != 4 || report.Counts.Critical != 1 || report.Counts.High != 3 {
		t.Errorf("Unexpected counts %+v", report.Counts)
	}

	if !strings.Contains(report.Excerpt, "ERROR Deadlock detected") {
		t.Errorf("Excerpt should contain the error line, got %q", report.Excerpt)
	}
}

func TestAnalyzeWithoutMetrics(t *testing.T) {
	svc := newTestService(t)

	report, err := svc.Analyze(context.Background(), Request{Log: "all quiet"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.Mapping.Found() {
		t.Error("Expected no stack trace")
	}
	if report.Metrics.Anomalies == nil || report.Metrics.TotalAnomalies != 0 {
		t.Errorf("Expected empty non-nil metric anomalies, got %+v", report.Metrics)
	}
	if report.Combined.TotalAnomalies != 0 {
		t.Errorf("Expected no anomalies, got %d", report.Combined.TotalAnomalies)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Analyze(ctx, Request{Log: incidentLog}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeUniqueIDs(t *testing.T) {
	svc := newTestService(t)

	a, _ := svc.Analyze(context.Background(), Request{Log: incidentLog})
	b, _ := svc.Analyze(context.Background(), Request{Log: incidentLog})
	if a.ID == b.ID {
		t.Errorf("Expected distinct IDs, both %s", a.ID)
	}
	if a.Counts != b.Counts || a.Mapping.ErrorMessage != b.Mapping.ErrorMessage {
		t.Error("Repeated analysis should give identical results")
	}
}

type fakeAnalyst struct {
	result   llm.Result
	input    bundle.Input
	summary  string
	related  []string
	errTypes []string
}

func (f *fakeAnalyst) AnalyzeError(_ context.Context, in bundle.Input) llm.Result {
	f.input = in
	return f.result
}

func (f *fakeAnalyst) IncidentSummary(context.Context, string, string) string {
	return f.summary
}

func (f *fakeAnalyst) RelatedIssues(_ context.Context, errorType string) []string {
	f.errTypes = append(f.errTypes, errorType)
	return f.related
}

func TestExplain(t *testing.T) {
	svc := newTestService(t)
	analyst := &fakeAnalyst{
		result:  llm.Result{Success: true, Analysis: "**Root Cause**: deadlock"},
		summary: "Payments failed.",
		related: []string{"Lock wait timeouts"},
	}

	exp, err := svc.Explain(context.Background(), analyst, Request{Log: incidentLog})
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if analyst.input.Log != incidentLog {
		t.Error("Analyst should receive the full log")
	}
	if analyst.input.Mapping == nil || len(analyst.input.Mapping.CodeContexts) != 2 {
		t.Errorf("Analyst should receive the code contexts, got %+v", analyst.input.Mapping)
	}
	if exp.Summary != "Payments failed." {
		t.Errorf("Unexpected summary %q", exp.Summary)
	}
	if len(analyst.errTypes) != 1 || analyst.errTypes[0] != "Exception" {
		t.Errorf("Expected error type Exception, got %v", analyst.errTypes)
	}
	if len(exp.RelatedIssues) != 1 {
		t.Errorf("Unexpected related issues %v", exp.RelatedIssues)
	}
}

func TestExplainModelFailure(t *testing.T) {
	svc := newTestService(t)
	analyst := &fakeAnalyst{result: llm.Result{Error: "timeout"}, summary: "never"}

	exp, err := svc.Explain(context.Background(), analyst, Request{Log: incidentLog})
	if err != nil {
		t.Fatalf("A model failure should not be an error: %v", err)
	}
	if exp.Analysis.Success || exp.Analysis.Error != "timeout" {
		t.Errorf("Unexpected analysis %+v", exp.Analysis)
	}
	if exp.Summary != "" || len(analyst.errTypes) != 0 {
		t.Error("Follow-up calls should be skipped after a failure")
	}
	if exp.Report.ID == "" {
		t.Error("The report should still be returned")
	}
}

func TestExplainPassesExceptionClass(t *testing.T) {
	svc := newTestService(t)
	analyst := &fakeAnalyst{
		result:  llm.Result{Success: true, Analysis: "**Root Cause**: deadlock"},
		related: []string{"Serialization failures"},
	}

	log := `2024-01-15 14:23:47,456 ERROR Deadlock detected
Traceback (most recent call last):
  File "/app/dummy_data/codebase/database_manager.py", line 4, in execute_transaction
psycopg2.OperationalError: deadlock detected
`
	exp, err := svc.Explain(context.Background(), analyst, Request{Log: log})
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if exp.Report.Mapping.ErrorMessage != "Error: deadlock detected" {
		t.Errorf("Unexpected error message %q", exp.Report.Mapping.ErrorMessage)
	}
	if len(analyst.errTypes) != 1 || analyst.errTypes[0] != "psycopg2.OperationalError" {
		t.Errorf("Expected error type psycopg2.OperationalError, got %v", analyst.errTypes)
	}
}

func TestExplainSkipsRelatedIssuesWithoutErrorLine(t *testing.T) {
	svc := newTestService(t)
	analyst := &fakeAnalyst{result: llm.Result{Success: true, Analysis: "ok"}}

	log := `File "/app/dummy_data/codebase/database_manager.py", line 4, in execute_transaction`
	exp, err := svc.Explain(context.Background(), analyst, Request{Log: log})
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if !exp.Report.Mapping.Found() {
		t.Fatal("Expected a mapped trace")
	}
	if len(analyst.errTypes) != 0 {
		t.Errorf("Related issues should not be requested without an error type, got %v", analyst.errTypes)
	}
}
