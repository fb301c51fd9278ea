package otlpconv

import (
	"strings"
	"time"

	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

const exceptionEvent = "exception"

// Traces renders every span "exception" event as an ERROR log line followed
// by its stack trace:
//
//	<timestamp> ERROR [<service>] <exception.type>: <exception.message>
//
// Spans without exception events contribute nothing.
func Traces(req *coltracepb.ExportTraceServiceRequest) string {
	var lines []string
	for _, rs := range req.GetResourceSpans() {
		service := serviceName(extractAttributes(rs.GetResource().GetAttributes()))
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				for _, ev := range span.GetEvents() {
					if ev.GetName() != exceptionEvent {
						continue
					}
					lines = append(lines, exceptionLine(service, span, ev))
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}

// ExceptionCount returns the number of span exception events in req.
func ExceptionCount(req *coltracepb.ExportTraceServiceRequest) int {
	n := 0
	for _, rs := range req.GetResourceSpans() {
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				for _, ev := range span.GetEvents() {
					if ev.GetName() == exceptionEvent {
						n++
					}
				}
			}
		}
	}
	return n
}

func exceptionLine(service string, span *tracepb.Span, ev *tracepb.Span_Event) string {
	attrs := extractAttributes(ev.GetAttributes())

	var b strings.Builder
	nanos := ev.GetTimeUnixNano()
	if nanos == 0 {
		nanos = span.GetStartTimeUnixNano()
	}
	if nanos != 0 {
		b.WriteString(time.Unix(0, int64(nanos)).UTC().Format(TimestampLayout))
		b.WriteByte(' ')
	}
	b.WriteString("ERROR [")
	b.WriteString(service)
	b.WriteString("] ")

	typ, msg := attrs["exception.type"], attrs["exception.message"]
	switch {
	case typ != "" && msg != "":
		b.WriteString(typ + ": " + msg)
	case typ != "":
		b.WriteString(typ)
	case msg != "":
		b.WriteString(msg)
	default:
		b.WriteString("exception in span " + span.GetName())
	}

	if trace := attrs[stacktraceKey]; trace != "" {
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(trace, "\n"))
	}
	return b.String()
}
