// Package otlpconv turns OTLP export requests into the inputs of the
// analysis engines: log text and a metrics snapshot.
package otlpconv

import (
	"fmt"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
)

// extractAttributes converts OTLP KeyValue attributes to a map.
func extractAttributes(attrs []*commonpb.KeyValue) map[string]string {
	result := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		result[attr.Key] = valueString(attr.Value)
	}
	return result
}

// valueString renders an OTLP value as text. Arrays and maps fall back to
// the proto text form.
func valueString(value *commonpb.AnyValue) string {
	if value == nil {
		return ""
	}

	switch v := value.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return v.StringValue
	case *commonpb.AnyValue_IntValue:
		return fmt.Sprintf("%d", v.IntValue)
	case *commonpb.AnyValue_DoubleValue:
		return fmt.Sprintf("%g", v.DoubleValue)
	case *commonpb.AnyValue_BoolValue:
		return fmt.Sprintf("%t", v.BoolValue)
	case *commonpb.AnyValue_BytesValue:
		return string(v.BytesValue)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// serviceName returns service.name, then host.name, then "unknown".
func serviceName(attrs map[string]string) string {
	if name, ok := attrs["service.name"]; ok && name != "" {
		return name
	}
	if name, ok := attrs["host.name"]; ok && name != "" {
		return name
	}
	return "unknown"
}
