// Package bundle assembles the context handed to the narrative-analysis
// model and parses its reply.
package bundle

import (
	"fmt"
	"strings"
)

const (
	excerptBefore   = 2
	excerptAfter    = 10
	excerptFallback = 20
)

// Excerpt returns the part of log worth showing: two lines before the first
// ERROR, CRITICAL or Traceback line and up to ten lines from it. Without such
// a line it returns the last twenty lines.
func Excerpt(log string) string {
	lines := strings.Split(log, "\n")

	for i, line := range lines {
		if strings.Contains(line, "ERROR") || strings.Contains(line, "CRITICAL") || strings.Contains(line, "Traceback") {
			start := max(0, i-excerptBefore)
			end := min(len(lines), i+excerptAfter)
			return strings.Join(lines[start:end], "\n")
		}
	}

	start := max(0, len(lines)-excerptFallback)
	return strings.Join(lines[start:], "\n")
}

// Source is a named log blob.
type Source struct {
	Name string
	Text string
}

// CombineLogs labels each source and joins them for scanning.
func CombineLogs(sources ...Source) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, fmt.Sprintf("=== %s Log ===\n%s", s.Name, s.Text))
	}
	return strings.Join(parts, "\n\n")
}
