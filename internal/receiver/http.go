package receiver

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const (
	transportHTTP = "http"

	// maxExportBytes caps a decompressed export body.
	maxExportBytes = 32 << 20
)

// HTTPReceiver handles OTLP HTTP requests.
type HTTPReceiver struct {
	pipeline *Pipeline
	server   *http.Server
	logger   *slog.Logger
}

// NewHTTPReceiver creates a new HTTP receiver.
func NewHTTPReceiver(addr string, pipeline *Pipeline, logger *slog.Logger) *HTTPReceiver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &HTTPReceiver{
		pipeline: pipeline,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/metrics", r.handleMetrics)
	mux.HandleFunc("/v1/traces", r.handleTraces)
	mux.HandleFunc("/v1/logs", r.handleLogs)
	mux.HandleFunc("/health", r.handleHealth)

	r.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return r
}

// Handler returns the receiver's routes.
func (r *HTTPReceiver) Handler() http.Handler {
	return r.server.Handler
}

// Start starts the HTTP server.
func (r *HTTPReceiver) Start() error {
	r.logger.Info("OTLP HTTP receiver listening", "addr", r.server.Addr)
	return r.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (r *HTTPReceiver) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

// handleMetrics handles OTLP metrics export requests.
func (r *HTTPReceiver) handleMetrics(w http.ResponseWriter, req *http.Request) {
	var exportReq colmetricspb.ExportMetricsServiceRequest
	if !r.readExport(w, req, "metrics", &exportReq) {
		return
	}

	if err := r.pipeline.Metrics(req.Context(), transportHTTP, &exportReq); err != nil {
		http.Error(w, fmt.Sprintf("Failed to analyze metrics: %v", err), http.StatusServiceUnavailable)
		return
	}

	// Return success response (always protobuf for OTLP)
	r.writeResponse(w, &colmetricspb.ExportMetricsServiceResponse{})
}

// handleTraces handles OTLP traces export requests.
func (r *HTTPReceiver) handleTraces(w http.ResponseWriter, req *http.Request) {
	var exportReq coltracepb.ExportTraceServiceRequest
	if !r.readExport(w, req, "traces", &exportReq) {
		return
	}

	if err := r.pipeline.Traces(req.Context(), transportHTTP, &exportReq); err != nil {
		http.Error(w, fmt.Sprintf("Failed to analyze traces: %v", err), http.StatusServiceUnavailable)
		return
	}

	r.writeResponse(w, &coltracepb.ExportTraceServiceResponse{})
}

// handleLogs handles OTLP logs export requests.
func (r *HTTPReceiver) handleLogs(w http.ResponseWriter, req *http.Request) {
	var exportReq collogspb.ExportLogsServiceRequest
	if !r.readExport(w, req, "logs", &exportReq) {
		return
	}

	if err := r.pipeline.Logs(req.Context(), transportHTTP, &exportReq); err != nil {
		http.Error(w, fmt.Sprintf("Failed to analyze logs: %v", err), http.StatusServiceUnavailable)
		return
	}

	r.writeResponse(w, &collogspb.ExportLogsServiceResponse{})
}

// readExport decodes an export body into msg, writing the error response
// itself on failure. Gzip bodies are decompressed. Protobuf is tried first
// (default for OTLP), then JSON.
func (r *HTTPReceiver) readExport(w http.ResponseWriter, req *http.Request, signal string, msg proto.Message) bool {
	if req.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	defer req.Body.Close()

	reader := io.Reader(req.Body)
	if req.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(req.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to decompress: %v", err), http.StatusBadRequest)
			return false
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxExportBytes+1))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read body: %v", err), http.StatusBadRequest)
		return false
	}
	if len(body) > maxExportBytes {
		http.Error(w, "Export too large", http.StatusRequestEntityTooLarge)
		return false
	}

	r.logger.Debug("Received export",
		"signal", signal,
		"content_type", req.Header.Get("Content-Type"),
		"content_encoding", req.Header.Get("Content-Encoding"),
		"bytes", len(body))

	if err := proto.Unmarshal(body, msg); err != nil {
		unmarshaler := protojson.UnmarshalOptions{DiscardUnknown: true}
		if jsonErr := unmarshaler.Unmarshal(body, msg); jsonErr != nil {
			r.logger.Warn("Failed to parse export", "signal", signal, "protobuf_error", err, "json_error", jsonErr)
			http.Error(w, fmt.Sprintf("Failed to parse request: protobuf error: %v, json error: %v", err, jsonErr), http.StatusBadRequest)
			return false
		}
		r.logger.Debug("Parsed export as JSON", "signal", signal)
	}
	return true
}

// handleHealth handles health check requests.
func (r *HTTPReceiver) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeResponse writes a protobuf response.
// OTLP always uses protobuf for responses.
func (r *HTTPReceiver) writeResponse(w http.ResponseWriter, resp proto.Message) {
	respBytes, err := proto.Marshal(resp)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(respBytes)
}
