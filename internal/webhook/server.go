// internal/webhook/server.go
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/user/chartadvisor/internal/pipeline"
	"github.com/user/chartadvisor/internal/state"
	"github.com/user/chartadvisor/internal/types"
)

const maxResponseBody = 1 << 20

// Server is a lightweight HTTP surface over the pipeline: submitting analysis
// responses, fetching prompts and reports, and inspecting sessions.
type Server struct {
	pipeline *pipeline.Pipeline
	sessions types.SessionStore
	reports  types.ReportStore
	mux      *http.ServeMux
}

// NewServer creates a webhook Server over the given pipeline and stores.
func NewServer(p *pipeline.Pipeline, sessions types.SessionStore, reports types.ReportStore) *Server {
	s := &Server{
		pipeline: p,
		sessions: sessions,
		reports:  reports,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /response/", s.handleResponse)
	s.mux.HandleFunc("GET /prompt/", s.handlePrompt)
	s.mux.HandleFunc("GET /report/", s.handleReport)
	s.mux.HandleFunc("GET /api/sessions", s.handleAPISessions)
	s.mux.HandleFunc("GET /api/sessions/", s.handleAPISessionJournal)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleResponse accepts a raw analysis payload for POST /response/{date}.
func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	date, ok := datePath(w, r, "/response/")
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxResponseBody))
	if err != nil || len(raw) == 0 {
		http.Error(w, `{"error":"request body required"}`, http.StatusBadRequest)
		return
	}

	report, err := s.pipeline.Respond(r.Context(), date, raw)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// handlePrompt serves the assembled prompt markdown for GET /prompt/{date}.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	date, ok := datePath(w, r, "/prompt/")
	if !ok {
		return
	}

	session, err := s.sessions.Get(r.Context(), date)
	if err != nil || session.PromptPath == "" {
		http.Error(w, `{"error":"no prompt for date"}`, http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(session.PromptPath)
	if err != nil {
		http.Error(w, `{"error":"no prompt for date"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	date, ok := datePath(w, r, "/report/")
	if !ok {
		return
	}

	report, err := s.reports.Get(r.Context(), date)
	if err != nil {
		http.Error(w, `{"error":"no report for date"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

type sessionResponse struct {
	Date      string `json:"date"`
	Status    string `json:"status"`
	ReportID  string `json:"report_id,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	result := make([]sessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionResponse{
			Date:      string(sess.Date),
			Status:    string(sess.Status),
			ReportID:  string(sess.ReportID),
			CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt: sess.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleAPISessionJournal serves GET /api/sessions/{date}/journal.
func (s *Server) handleAPISessionJournal(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[1] != "journal" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	date, err := types.ParseSessionDate(parts[0])
	if err != nil {
		http.Error(w, `{"error":"invalid date"}`, http.StatusBadRequest)
		return
	}

	limit := 200
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.pipeline.Journal(r.Context(), date, limit)
	if err != nil {
		slog.Error("tail journal failed", "date", date, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*state.JournalEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// datePath extracts and validates the {date} path segment after prefix.
func datePath(w http.ResponseWriter, r *http.Request, prefix string) (types.SessionDate, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	date, err := types.ParseSessionDate(raw)
	if err != nil {
		http.Error(w, `{"error":"invalid date"}`, http.StatusBadRequest)
		return "", false
	}
	return date, true
}

func writePipelineError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var verr *types.ValidationError
	if errors.As(err, &verr) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid response", "problems": verr.Problems})
		return
	}
	var precondition *types.PreconditionError
	if errors.As(err, &precondition) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": precondition.Error()})
		return
	}
	if errors.Is(err, types.ErrSessionBusy) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if errors.Is(err, types.ErrSessionNotFound) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	slog.Error("pipeline request failed", "error", err)
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
