package bundle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fidde/rootcause/pkg/models"
)

// SystemPrompt frames the model as an incident analyst.
const SystemPrompt = `You are an expert DevOps engineer and system reliability expert specializing in analyzing production issues, particularly in financial services and payment systems.

Your role is to:
1. Analyze error logs and stack traces to identify root causes
2. Explain technical issues in clear, actionable terms
3. Provide specific recommendations for fixing issues
4. Identify patterns that led to the failure
5. Suggest preventive measures

Focus on:
- Database issues (deadlocks, lock timeouts, connection pool exhaustion)
- Transaction failures and rollbacks
- Performance bottlenecks
- Concurrency issues
- SQL transaction management

Be specific about:
- Which file, function, and line caused the issue
- The exact error and why it happened
- What was happening in the system at that time
- How to fix it immediately
- How to prevent it in the future`

// TopAnomalies is how many anomalies are listed in the prompt.
const TopAnomalies = 5

const requestedSections = `
## Analysis Required:

Please provide a detailed analysis with the following sections:

1. **Root Cause**: What exactly caused this error?
2. **Impact**: What was the business impact? (e.g., failed payments, service downtime)
3. **Technical Details**: Explain the technical issue in detail
4. **Affected Components**: Which files, functions, or services are affected?
5. **Immediate Fix**: What should be done right now to resolve this?
6. **Prevention**: How can we prevent this from happening again?
7. **Monitoring**: What should we monitor to detect this earlier next time?

Be specific and actionable. Reference exact line numbers, function names, and files.
`

// Input is everything the prompt is built from. Mapping and Anomalies are
// optional.
type Input struct {
	Log       string
	Mapping   *models.CodeMapping
	Anomalies *models.AnomalyReport

	// Language tags code fences, e.g. "python".
	Language string
}

// Build renders the user prompt for one analysis.
func Build(in Input) string {
	var b strings.Builder

	b.WriteString("# Error Log Analysis Request\n\n")
	b.WriteString("## Error Logs:\n```\n")
	b.WriteString(in.Log)
	b.WriteString("\n```\n")

	if in.Mapping != nil && len(in.Mapping.CodeContexts) > 0 {
		lang := in.Language
		if lang == "" {
			lang = "python"
		}

		b.WriteString("\n## Code Context:\n")
		for _, ctx := range in.Mapping.CodeContexts {
			fn := ctx.Function
			if fn == "" {
				fn = "unknown"
			}
			fmt.Fprintf(&b, "\n### File: %s, Function: %s\n```%s\n", ctx.File, fn, lang)
			for _, line := range ctx.Snippet {
				marker := "    "
				if line.IsError {
					marker = ">>> "
				}
				fmt.Fprintf(&b, "%sLine %d: %s\n", marker, line.LineNum, line.Content)
			}
			b.WriteString("```\n")
		}
	}

	if in.Anomalies != nil {
		b.WriteString("\n## System Metrics:\n")
		fmt.Fprintf(&b, "Total Anomalies Detected: %d\n", in.Anomalies.TotalAnomalies)
		for _, a := range in.Anomalies.Top(TopAnomalies) {
			sev := a.Severity
			if sev == "" {
				sev = models.SeverityUnknown
			}
			fmt.Fprintf(&b, "- [%s] %s\n", sev, a.Describe())
		}
	}

	b.WriteString(requestedSections)
	return b.String()
}

// IncidentSummaryPrompt asks for a two or three sentence summary. Both inputs
// are cut to 500 bytes.
func IncidentSummaryPrompt(log, analysis string) string {
	return fmt.Sprintf(`Based on this error and analysis, create a concise incident summary (2-3 sentences) suitable for an incident report or alert:

ERROR LOG:
%s...

ANALYSIS:
%s...

Provide only the summary, no additional text.`, truncate(log, 500), truncate(analysis, 500))
}

// RelatedIssuesPrompt asks for issues that usually accompany errorType.
func RelatedIssuesPrompt(errorType string) string {
	return fmt.Sprintf(`Given this type of error: "%s"

List 3-4 related issues that commonly occur alongside this error in production payment systems.
Format as a simple bulleted list, one issue per line.`, errorType)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
