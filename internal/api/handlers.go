package api

import (
	"net/http"

	"github.com/fidde/rootcause/internal/analysis"
	"github.com/fidde/rootcause/pkg/models"
)

// logRequest is the body of the single-log endpoints.
type logRequest struct {
	Log string `json:"log"`
}

// analyze runs both engines.
// POST /api/v1/analyze
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if !s.decodeJSON(w, r, &req) {
		return
	}

	report, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// mapTrace maps a log's stack trace to source.
// POST /api/v1/map
func (s *Server) mapTrace(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	s.respondJSON(w, http.StatusOK, s.svc.Mapper().Map(req.Log))
}

// POST /api/v1/anomalies/logs
func (s *Server) logAnomalies(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	s.respondJSON(w, http.StatusOK, s.svc.Detector().AnalyzeLogs(req.Log))
}

// POST /api/v1/anomalies/metrics
func (s *Server) metricAnomalies(w http.ResponseWriter, r *http.Request) {
	var snapshot models.MetricsSnapshot
	if !s.decodeJSON(w, r, &snapshot) {
		return
	}
	s.respondJSON(w, http.StatusOK, s.svc.Detector().AnalyzeMetrics(snapshot))
}

// explain runs the analysis and asks the model for a narrative. A model
// failure is reported in the body with 200.
// POST /api/v1/explain
func (s *Server) explain(w http.ResponseWriter, r *http.Request) {
	if s.analyst == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no language model configured")
		return
	}

	var req analysis.Request
	if !s.decodeJSON(w, r, &req) {
		return
	}

	exp, err := s.svc.Explain(r.Context(), s.analyst, req)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, exp)
}
