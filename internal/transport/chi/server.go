package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/logger"
	"github.com/resumeqa/resumeqa/internal/metrics"
	healthuc "github.com/resumeqa/resumeqa/internal/usecase/health"
)

// QuotaExceededMessage is returned with 429 responses.
const QuotaExceededMessage = "Gemini API quota exceeded. Please try again in a few minutes, " +
	"or check your usage at https://ai.google.dev/gemini-api/docs/rate-limits"

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeInvalidInput  = "invalid_input"
	CodeNotConfigured = "not_configured"
	CodeRateLimited   = "rate_limited"
	CodeUpstream      = "upstream_error"
	CodeNotFound      = "not_found"
	CodeInternal      = "internal_error"
)

// Answerer answers questions about the resume owner.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Files locates the data and frontend served by the API.
type Files struct {
	AbbrevPath string
	StaticDir  string
	ImagesDir  string
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is returned by POST /api/ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every error. Detail carries the user-facing text.
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the resume page and the Q&A API.
type Server struct {
	answers       Answerer
	health        HealthChecker
	files         Files
	askTimeout    time.Duration
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. askTimeout <= 0 means no deadline
// beyond the client's.
func NewServer(answers Answerer, health HealthChecker, files Files, askTimeout time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		answers:    answers,
		health:     health,
		files:      files,
		askTimeout: askTimeout,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput,
			func(error) string { return "Question is required." }),
		sentinelHandler(domain.ErrNotConfigured, http.StatusServiceUnavailable, CodeNotConfigured,
			func(err error) string { return "Q&A is not configured: " + err.Error() }),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited,
			func(error) string { return QuotaExceededMessage }),
	}
	return s
}

// Router mounts all routes behind the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/api/ask", s.Ask)
	r.Get("/api/resume", s.Resume)
	r.Get("/api/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/favicon.ico", s.Favicon)
	r.Get("/", s.Index)

	mountDir(r, "/static", s.files.StaticDir)
	mountDir(r, "/images", s.files.ImagesDir)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not Found")
	})
	return r
}

// Ask handles POST /api/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx := r.Context()
	if s.askTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.askTimeout)
		defer cancel()
	}

	answer, err := s.answers.Answer(ctx, req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
}

// Resume handles GET /api/resume with the abbreviated resume, verbatim.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.files.AbbrevPath)
	if err != nil {
		logger.FromContext(r.Context()).Error("read abbreviated resume", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternal, "Resume data not found.")
		return
	}
	if !gjson.ValidBytes(data) {
		logger.FromContext(r.Context()).Error("abbreviated resume is not valid JSON",
			zap.String("path", s.files.AbbrevPath))
		writeError(w, http.StatusInternalServerError, CodeInternal, "Resume data is invalid.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Favicon handles GET /favicon.ico with static/favicon.svg.
func (s *Server) Favicon(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.files.StaticDir, "favicon.svg")
	if !isFile(path) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not Found")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	http.ServeFile(w, r, path)
}

// Index handles GET / with static/index.html.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.files.StaticDir, "index.html")
	if !isFile(path) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Frontend not found. Create static/index.html.")
		return
	}
	http.ServeFile(w, r, path)
}

// mountDir serves dir under prefix when dir exists at startup.
func mountDir(r chi.Router, prefix, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	fsrv := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", fsrv.ServeHTTP)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Code: code, Detail: detail})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string, detail func(error) string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, detail(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.String("kind", domain.KindOf(err).String()), zap.Error(err))
			return
		}
	}
	log.Error("answer failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeUpstream, "Error answering question: "+err.Error())
}

