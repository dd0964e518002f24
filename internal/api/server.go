package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fmuoria/candidate-dashboard/internal/chat"
	"github.com/fmuoria/candidate-dashboard/internal/dashboard"
	"github.com/fmuoria/candidate-dashboard/internal/export"
	"github.com/fmuoria/candidate-dashboard/internal/facets"
	"github.com/fmuoria/candidate-dashboard/internal/filter"
	"github.com/fmuoria/candidate-dashboard/internal/ingestion"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server handles HTTP requests
type Server struct {
	dashboard *dashboard.Dashboard
	assistant *chat.Assistant
	uploads   *ingestion.FileHandler
	sources   map[string]ingestion.Source
}

// NewServer creates a new API server. sources maps the names accepted by
// POST /dataset to their loaders.
func NewServer(d *dashboard.Dashboard, assistant *chat.Assistant, uploads *ingestion.FileHandler, sources map[string]ingestion.Source) *Server {
	if sources == nil {
		sources = map[string]ingestion.Source{}
	}
	return &Server{
		dashboard: d,
		assistant: assistant,
		uploads:   uploads,
		sources:   sources,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /dataset", s.handleDataset)
	mux.HandleFunc("GET /catalog", s.handleCatalog)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("POST /filters/clear", s.handleClearAll)
	mux.HandleFunc("POST /filters/{facet}/{action}", s.handleFilter)
	mux.HandleFunc("GET /candidates", s.handleCandidates)
	mux.HandleFunc("GET /facets/{facet}/{value}/candidates", s.handleFacetCandidates)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /chat/messages", s.handleChatMessages)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Candidate Dashboard",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"GET /status":                           "Dataset load status",
			"POST /dataset":                         "Upload a spreadsheet or reload from a configured source",
			"GET /catalog":                          "Facet values of the whole dataset (?facet=&q=)",
			"GET /dashboard":                        "Filtered metrics and charts",
			"POST /filters/{facet}/{action}":        "open, toggle, submit, cancel or clear a facet picker",
			"POST /filters/clear":                   "Clear every filter",
			"GET /candidates":                       "Filtered candidate table (?page=&size=)",
			"GET /facets/{facet}/{value}/candidates": "Filtered candidates with one facet value",
			"GET /export":                           "Download the filtered candidates as xlsx",
			"POST /chat":                            "Ask a question about the data",
			"GET /chat/messages":                    "Chat history",
			"GET /health":                           "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.dashboard.Status())
}

// handleDataset loads a dataset from an uploaded file or a named source
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	var src ingestion.Source

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		path, err := s.saveUpload(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		src = ingestion.FileSource{Path: path}
	} else {
		var req struct {
			Source string `json:"source"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
		named, ok := s.sources[req.Source]
		if !ok {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown or unconfigured source %q", req.Source))
			return
		}
		src = named
	}

	if err := s.dashboard.Load(r.Context(), src); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ingestion.ErrUnsupportedFormat):
			status = http.StatusBadRequest
		case errors.Is(err, dashboard.ErrSuperseded):
			status = http.StatusConflict
		}
		s.respondError(w, status, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

// saveUpload stores the "file" form field in the uploads directory
func (s *Server) saveUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32 MB max
		return "", fmt.Errorf("failed to parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	path, err := s.uploads.SaveUploadedFile(header.Filename, file)
	if err != nil {
		return "", err
	}
	log.Printf("Saved file: %s", header.Filename)
	return path, nil
}

// facetParam resolves a facet path value. Unknown names pass through so the
// filter engine can reject them.
func facetParam(raw string) facets.Facet {
	if f, ok := facets.ParseFacet(raw); ok {
		return f
	}
	return facets.Facet(raw)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("facet")
	if name == "" {
		s.respondJSON(w, http.StatusOK, s.dashboard.Catalog().Tables())
		return
	}

	f := facetParam(name)
	options, err := s.dashboard.Options(f, r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"facet":   f,
		"label":   f.Label(),
		"options": options,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

// handleFilter drives the staged selection protocol of one facet
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	f := facetParam(r.PathValue("facet"))

	var err error
	switch action := r.PathValue("action"); action {
	case "open":
		_, err = s.dashboard.Open(f)
	case "toggle":
		value, valueErr := toggleValue(r)
		if valueErr != nil {
			s.respondError(w, http.StatusBadRequest, valueErr.Error())
			return
		}
		_, err = s.dashboard.Toggle(f, value)
	case "submit":
		_, err = s.dashboard.Submit(f)
	case "cancel":
		_, err = s.dashboard.Cancel(f)
	case "clear":
		_, err = s.dashboard.Clear(f)
	default:
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown filter action %q", action))
		return
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, filter.ErrUnknownFacet) || errors.Is(err, filter.ErrUnselectable) {
			status = http.StatusBadRequest
		}
		s.respondError(w, status, err.Error())
		return
	}

	picker, _ := s.dashboard.Picker(f)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"picker":    picker,
		"dashboard": s.dashboard.Snapshot(),
	})
}

// toggleValue reads the value from ?value= or a {"value": ...} body
func toggleValue(r *http.Request) (string, error) {
	if v := r.URL.Query().Get("value"); v != "" {
		return v, nil
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("value is required")
	}
	if req.Value == "" {
		return "", fmt.Errorf("value is required")
	}
	return req.Value, nil
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	s.dashboard.ClearAll()
	s.respondJSON(w, http.StatusOK, s.dashboard.Snapshot())
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 0)
	s.respondJSON(w, http.StatusOK, s.dashboard.Page(page, size))
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func (s *Server) handleFacetCandidates(w http.ResponseWriter, r *http.Request) {
	f := facetParam(r.PathValue("facet"))
	value := r.PathValue("value")

	candidates, err := s.dashboard.CandidatesFor(f, value)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"facet":      f,
		"value":      value,
		"count":      len(candidates),
		"candidates": candidates,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	headers, view, err := s.dashboard.ExportData()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dashboard.ErrNoData) {
			status = http.StatusNotFound
		}
		s.respondError(w, status, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, headers, view); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("candidates_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write export: %v", err)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	answer, err := s.assistant.Ask(r.Context(), req.Question)
	if err != nil {
		var cooldown *chat.CooldownError
		switch {
		case errors.As(err, &cooldown):
			retryAfter := int(math.Ceil(cooldown.Remaining.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			s.respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":       err.Error(),
				"retry_after": retryAfter,
			})
		case errors.Is(err, chat.ErrEmptyQuestion):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrNotConfigured):
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.respondError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.assistant.Messages())
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
