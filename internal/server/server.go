package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"codereviewer/internal/api"
	"codereviewer/internal/metrics"
	"codereviewer/internal/middleware"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

type Executor interface {
	Execute(ctx context.Context, language, source string) api.ExecutionResult
}

type Reviewer interface {
	Review(ctx context.Context, language, source string) api.ReviewResponse
}

type Server struct {
	exec   Executor
	review Reviewer
	logger *slog.Logger

	// one submission at a time, execute or review, like the desk
	busy sync.Mutex
}

func New(exec Executor, review Reviewer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{exec: exec, review: review, logger: logger}
}

func (s *Server) Handler() http.Handler {
	limit := middleware.RateLimitMiddleware(rate.Every(6*time.Second), 10)

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.ping)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/execute", limit(http.HandlerFunc(s.execute)))
	mux.Handle("/review", limit(http.HandlerFunc(s.reviewHandler)))

	return middleware.RequestLogger(s.logger)(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	metrics.IncrementError()
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, metrics.GetMetrics())
}

// decodeSubmission reads a {language, source_code} body. It writes the
// error response itself and returns false on failure.
func decodeSubmission(w http.ResponseWriter, r *http.Request, dst any, source func() string) bool {
	metrics.IncrementRequest()

	if r.Method != http.MethodPost {
		metrics.IncrementError()
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if strings.TrimSpace(source()) == "" {
		writeError(w, http.StatusBadRequest, "source_code cannot be empty")
		return false
	}
	return true
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var req api.ExecutionRequest
	if !decodeSubmission(w, r, &req, func() string { return req.SourceCode }) {
		return
	}

	s.busy.Lock()
	result := s.exec.Execute(r.Context(), req.Language, strings.TrimSpace(req.SourceCode))
	s.busy.Unlock()

	s.logger.Debug("execute",
		"request_id", middleware.RequestID(r.Context()),
		"language", req.Language,
		"outcome", result.Outcome)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) reviewHandler(w http.ResponseWriter, r *http.Request) {
	var req api.ReviewRequest
	if !decodeSubmission(w, r, &req, func() string { return req.SourceCode }) {
		return
	}

	s.busy.Lock()
	resp := s.review.Review(r.Context(), req.Language, strings.TrimSpace(req.SourceCode))
	s.busy.Unlock()
	status := http.StatusOK
	if resp.Error != "" {
		metrics.IncrementError()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}
