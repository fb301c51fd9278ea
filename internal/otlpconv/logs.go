package otlpconv

import (
	"strings"
	"time"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

// TimestampLayout renders record times the way the log scanner reads them.
const TimestampLayout = "2006-01-02 15:04:05,000"

// stacktraceKey is the semantic-convention attribute holding a traceback.
const stacktraceKey = "exception.stacktrace"

// Logs renders every record as one log line, in request order:
//
//	<timestamp> <SEVERITY> [<service>] <body>
//
// Multi-line bodies are kept verbatim. An exception.stacktrace attribute is
// appended after the body so tracebacks reach the code mapper.
func Logs(req *collogspb.ExportLogsServiceRequest) string {
	var lines []string
	for _, rl := range req.GetResourceLogs() {
		service := serviceName(extractAttributes(rl.GetResource().GetAttributes()))
		for _, sl := range rl.GetScopeLogs() {
			for _, rec := range sl.GetLogRecords() {
				lines = append(lines, logLine(service, rec))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// LogRecordCount returns the number of records in req.
func LogRecordCount(req *collogspb.ExportLogsServiceRequest) int {
	n := 0
	for _, rl := range req.GetResourceLogs() {
		for _, sl := range rl.GetScopeLogs() {
			n += len(sl.GetLogRecords())
		}
	}
	return n
}

func logLine(service string, rec *logspb.LogRecord) string {
	var b strings.Builder

	if ts := recordTime(rec); !ts.IsZero() {
		b.WriteString(ts.Format(TimestampLayout))
		b.WriteByte(' ')
	}
	b.WriteString(severityText(rec))
	b.WriteString(" [")
	b.WriteString(service)
	b.WriteString("] ")
	b.WriteString(valueString(rec.GetBody()))

	if trace := extractAttributes(rec.GetAttributes())[stacktraceKey]; trace != "" {
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(trace, "\n"))
	}
	return b.String()
}

func recordTime(rec *logspb.LogRecord) time.Time {
	nanos := rec.GetTimeUnixNano()
	if nanos == 0 {
		nanos = rec.GetObservedTimeUnixNano()
	}
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(nanos)).UTC()
}

// severityText upper-cases the record's text, or derives it from the
// severity number. FATAL maps to CRITICAL and WARN to WARNING so the log
// scanner's markers match.
func severityText(rec *logspb.LogRecord) string {
	if text := strings.ToUpper(strings.TrimSpace(rec.GetSeverityText())); text != "" {
		switch text {
		case "FATAL":
			return "CRITICAL"
		case "WARN":
			return "WARNING"
		}
		return text
	}

	n := rec.GetSeverityNumber()
	switch {
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_FATAL:
		return "CRITICAL"
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_ERROR:
		return "ERROR"
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_WARN:
		return "WARNING"
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_INFO:
		return "INFO"
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_DEBUG:
		return "DEBUG"
	case n >= logspb.SeverityNumber_SEVERITY_NUMBER_TRACE:
		return "TRACE"
	default:
		return "UNSET"
	}
}
