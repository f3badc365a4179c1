package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwygoda/questions/internal/domain"
)

const maxBodyBytes = 4 << 20

// Server is the HTTP adapter for the questions service.
type Server struct {
	questions *domain.QuestionsService
	jobs      *domain.JobService
	mux       *http.ServeMux
	server    *http.Server
	logger    *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(questions *domain.QuestionsService, jobs *domain.JobService, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		questions: questions,
		jobs:      jobs,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.withRequestLog(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /questions/positive-divisors", s.handleDivisors)
	s.mux.HandleFunc("GET /questions/triangle-area", s.handleTriangleArea)
	s.mux.HandleFunc("GET /questions/most-common-integers", s.handleMostCommon)
	s.mux.HandleFunc("POST /questions/most-common-integers", s.handleMostCommon)
	s.mux.HandleFunc("GET /questions/link-checker", s.handleCheckLinks)
	s.mux.HandleFunc("POST /questions/link-checker", s.handleCheckLinks)
	s.mux.HandleFunc("POST /questions/link-checker/jobs", s.handleSubmitJob)
	s.mux.HandleFunc("GET /questions/link-checker/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("POST /questions/arrange-by", s.handleArrangeBy)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// errorResponse is the JSON error response.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type areaResponse struct {
	Area float64 `json:"area"`
}

type summaryResponse struct {
	Total  int `json:"total"`
	Valid  int `json:"valid"`
	Broken int `json:"broken"`
}

// jobResponse is the JSON response for job endpoints.
type jobResponse struct {
	ID        int64                 `json:"id"`
	Status    string                `json:"status"`
	Attempts  int                   `json:"attempts"`
	Error     string                `json:"error,omitempty"`
	Summary   *summaryResponse      `json:"summary,omitempty"`
	Links     []domain.VerifiedLink `json:"links,omitempty"`
	CreatedAt string                `json:"created_at"`
	UpdatedAt string                `json:"updated_at"`
}

func (s *Server) handleDivisors(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.URL.Query().Get("number"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "ArgumentException", "number must be an integer")
		return
	}

	divisors, err := s.questions.GetPositiveDivisors(number)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, divisors)
}

func (s *Server) handleTriangleArea(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var sides [3]int
	for i, name := range []string{"first", "second", "third"} {
		v, err := strconv.Atoi(q.Get(name))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "InvalidTriangleException", name+" must be an integer")
			return
		}
		sides[i] = v
	}

	area, err := s.questions.CalculateTriangleArea(sides[0], sides[1], sides[2])
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, areaResponse{Area: area})
}

func (s *Server) handleMostCommon(w http.ResponseWriter, r *http.Request) {
	var numbers []int
	if err := decodeJSON(r, &numbers); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON", err.Error())
		return
	}

	modes, err := s.questions.GetMostCommonIntegers(numbers)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, modes)
}

func (s *Server) handleCheckLinks(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.questions.CheckLinks(r.Context(), text))
}

func (s *Server) handleArrangeBy(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		s.writeError(w, http.StatusBadRequest, "ArgumentException", "key is required")
		return
	}

	var items []any
	if err := decodeJSON(r, &items); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.questions.ArrangeBy(key, items))
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	text, err := readText(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	job, err := s.jobs.Submit(r.Context(), text)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, jobToResponse(job))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job ID", "")
		return
	}

	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps domain errors onto status codes. Anything
// unrecognised is logged and reported as an internal error.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve) && errors.Is(err, domain.ErrInvalidTriangle):
		s.writeError(w, http.StatusBadRequest, "InvalidTriangleException", ve.Message)
	case errors.As(err, &ve):
		s.writeError(w, http.StatusBadRequest, "ArgumentException", ve.Message)
	case errors.Is(err, domain.ErrEmptyText):
		s.writeError(w, http.StatusBadRequest, "ArgumentException", err.Error())
	case errors.Is(err, domain.ErrJobNotFound):
		s.writeError(w, http.StatusNotFound, "job not found", "")
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", w.Header().Get(requestIDHeader)),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, msg string) {
	s.writeJSON(w, status, errorResponse{Error: kind, Message: msg})
}

// decodeJSON decodes the request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// readText returns the request body as text. A JSON body must be a single
// string; any other content type is taken verbatim.
func readText(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return string(body), nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	var text *string
	if err := json.Unmarshal(body, &text); err != nil {
		return "", errors.New("body must be a JSON string")
	}
	if text == nil {
		return "", nil
	}
	return *text, nil
}

func jobToResponse(job *domain.Job) jobResponse {
	resp := jobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		Attempts:  job.Attempts,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if job.Status == domain.StatusCompleted {
		broken := job.Broken()
		resp.Summary = &summaryResponse{
			Total:  len(job.Results),
			Valid:  len(job.Results) - broken,
			Broken: broken,
		}
		resp.Links = job.Results
	}
	return resp
}

const requestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog tags each request with an ID and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.server.Addr
}
