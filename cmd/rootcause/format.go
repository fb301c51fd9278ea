package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/pkg/models"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *models.AnalysisReport:
		return formatReportHuman(v), nil
	case *models.CodeMapping:
		return formatMappingHuman(v), nil
	case *models.LogAnalysis:
		return formatLogAnalysisHuman(v), nil
	case *models.AnomalyReport:
		return formatAnomaliesHuman(v.Anomalies), nil
	case *analysis.Explanation:
		return formatExplanationHuman(v), nil
	case []string:
		return strings.Join(v, "\n"), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatReportHuman(r *models.AnalysisReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report %s (%s)\n\n", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(formatMappingHuman(&r.Mapping))
	fmt.Fprintf(&b, "\nAnomalies: %d total, %d critical, %d high, %d medium, %d low\n",
		r.Counts.Total, r.Counts.Critical, r.Counts.High, r.Counts.Medium, r.Counts.Low)
	b.WriteString(formatAnomaliesHuman(r.Combined.Anomalies))
	return strings.TrimRight(b.String(), "\n")
}

func formatMappingHuman(m *models.CodeMapping) string {
	if !m.Found() {
		return m.Error + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", m.ErrorMessage)
	if rc := m.RootCause; rc != nil {
		fmt.Fprintf(&b, "Root cause: %s:%d in %s\n", rc.File, rc.Line, orUnknown(rc.Function))
	}
	fmt.Fprintf(&b, "Stack trace (%d frames, %d resolved):\n", len(m.StackTrace), len(m.CodeContexts))
	for _, f := range m.StackTrace {
		fmt.Fprintf(&b, "  %s:%d %s\n", f.File, f.Line, f.Function)
	}
	for _, ctx := range m.CodeContexts {
		fmt.Fprintf(&b, "\n%s (%s) lines %d-%d\n", ctx.File, orUnknown(ctx.Function), ctx.StartLine, ctx.EndLine)
		for _, line := range ctx.Snippet {
			marker := "   "
			if line.IsError {
				marker = ">>>"
			}
			fmt.Fprintf(&b, "%s %4d | %s\n", marker, line.LineNum, line.Content)
		}
	}
	return b.String()
}

func formatLogAnalysisHuman(a *models.LogAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Errors: %d  Warnings: %d  Critical anomalies: %d\n", a.ErrorCount, a.WarningCount, a.CriticalCount)
	b.WriteString(formatAnomaliesHuman(a.Anomalies))
	return strings.TrimRight(b.String(), "\n")
}

func formatAnomaliesHuman(anomalies []models.Anomaly) string {
	if len(anomalies) == 0 {
		return "No anomalies detected\n"
	}
	var b strings.Builder
	for _, a := range anomalies {
		fmt.Fprintf(&b, "  [%-8s] %-10s %s\n", a.Severity, a.Timestamp, a.Describe())
	}
	return b.String()
}

func formatExplanationHuman(e *analysis.Explanation) string {
	var b strings.Builder
	b.WriteString(formatReportHuman(&e.Report))
	b.WriteString("\n\n")
	if !e.Analysis.Success {
		fmt.Fprintf(&b, "Analysis failed: %s", e.Analysis.Error)
		return b.String()
	}
	if e.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n\n", e.Summary)
	}
	b.WriteString(e.Analysis.Analysis)
	if len(e.RelatedIssues) > 0 {
		b.WriteString("\n\nRelated issues:\n")
		for _, issue := range e.RelatedIssues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
