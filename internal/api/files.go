package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fidde/rootcause/pkg/models"
)

// listFiles returns indexed file keys.
// Supports pagination via ?limit=N&offset=M query parameters.
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	s.respondJSON(w, http.StatusOK, paginateSlice(s.svc.Mapper().Files(), params))
}

// getFile returns the content of one indexed file.
// GET /api/v1/files/{path...}
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	content, ok := s.svc.Mapper().FileContent(path)
	if !ok {
		s.respondError(w, http.StatusNotFound, "file not indexed")
		return
	}
	s.respondJSON(w, http.StatusOK, models.SourceFile{Path: path, Content: content})
}

// getDefinition finds a function header in an indexed file.
// Query parameters:
//   - file: indexed file key (required)
//   - function: function name (required)
func (s *Server) getDefinition(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	function := r.URL.Query().Get("function")
	if file == "" || function == "" {
		s.respondError(w, http.StatusBadRequest, "file and function are required")
		return
	}

	def, ok := s.svc.Mapper().FindDefinition(file, function)
	if !ok {
		s.respondError(w, http.StatusNotFound, "definition not found")
		return
	}
	s.respondJSON(w, http.StatusOK, def)
}
