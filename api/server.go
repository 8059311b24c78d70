package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amonks/taskowner/access"
	"github.com/amonks/taskowner/internal/logging"
	"github.com/amonks/taskowner/ownership"
)

// Message is the greeting returned from the root route.
const Message = "WebODM Task Ownership API"

// Endpoints lists the query routes advertised by the root route.
var Endpoints = []string{
	"/api/tasks/ownership",
	"/api/tasks/status",
	"/api/tasks/{task_id}/owner",
	"/api/tasks/{task_id}/check-access/{username}",
}

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-Id"

const shutdownTimeout = 5 * time.Second

// ServerOptions configures a server.
type ServerOptions struct {
	Service *Service
	Logger  *zap.SugaredLogger
}

// Server handles the HTTP surface.
type Server struct {
	service *Service
	logger  *zap.SugaredLogger
}

// NewServer creates a server.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{service: opts.Service, logger: logger}, nil
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/tasks/ownership", s.handleOwnership)
	mux.HandleFunc("GET /api/tasks/status", s.handleStatus)
	mux.HandleFunc("GET /api/tasks/{task_id}/owner", s.handleOwner)
	mux.HandleFunc("GET /api/tasks/{task_id}/check-access/{username}", s.handleCheckAccess)
	return s.logRequests(s.recoverHandler(s.routeErrors(mux)))
}

// routeErrors renders the mux's own 404 and 405 responses as JSON errors,
// keeping the Allow header of a 405.
func (s *Server) routeErrors(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallback, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}
		miss := &routeMiss{header: make(http.Header)}
		fallback.ServeHTTP(miss, r)
		if miss.status != http.StatusNotFound && miss.status != http.StatusMethodNotAllowed {
			mux.ServeHTTP(w, r)
			return
		}
		if allow := miss.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		s.writeError(w, r, miss.status, errors.New(http.StatusText(miss.status)))
	})
}

// routeMiss records the status and headers of an unmatched route's
// response and discards the body.
type routeMiss struct {
	header http.Header
	status int
}

func (m *routeMiss) Header() http.Header { return m.header }

func (m *routeMiss) WriteHeader(status int) {
	if m.status == 0 {
		m.status = status
	}
}

func (m *routeMiss) Write(data []byte) (int, error) {
	m.WriteHeader(http.StatusOK)
	return len(data), nil
}

// Serve runs the server on addr until it fails or the process is
// interrupted.
func (s *Server) Serve(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ErrorLog:          zap.NewStdLog(s.logger.Desugar()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	s.logger.Infow("server listening", "addr", addr)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("server stopped", "error", err)
			return err
		}
		return nil
	case sig := <-interrupts:
		s.logger.Infow("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}

// RootResponse is the body of the root route.
type RootResponse struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

// OwnershipResponse is the body of the ownership listing.
type OwnershipResponse struct {
	Tasks []ownership.Record `json:"tasks"`
}

// StatusResponse is the body of the status listing.
type StatusResponse struct {
	Tasks []ownership.StatusRecord `json:"tasks"`
}

// HealthResponse is the body of a passing health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: Message, Endpoints: Endpoints})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Health(r.Context()); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleOwnership(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.TaskOwnership(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []ownership.Record{}
	}
	writeJSON(w, http.StatusOK, OwnershipResponse{Tasks: records})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.TaskStatus(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []ownership.StatusRecord{}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Tasks: records})
}

func (s *Server) handleOwner(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.taskID(w, r)
	if !ok {
		return
	}
	record, err := s.service.TaskOwner(r.Context(), taskID)
	if errors.Is(err, ownership.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("Task %d not found or has no owner", taskID))
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	taskID, ok := s.taskID(w, r)
	if !ok {
		return
	}
	username := r.PathValue("username")
	report, err := s.service.CheckAccess(r.Context(), taskID, username)
	if errors.Is(err, access.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("Task %d or user %s not found", taskID, username))
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("task_id")
	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid task id %q", raw))
		return 0, false
	}
	return taskID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logRequestError(r, status, err)
	writeJSON(w, status, ErrorResponse{Detail: err.Error()})
}

func (s *Server) logRequestError(r *http.Request, status int, err error) {
	fields := []any{
		"request_id", requestID(r),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("request failed", fields...)
		return
	}
	s.logger.Warnw("request failed", fields...)
}

type requestIDKey struct{}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.logger.Errorw("panic handling request",
					"request_id", requestID(r),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(recovered),
					"stack", string(debug.Stack()),
				)
				if writer.wroteHeader {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, ErrorResponse{Detail: "internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.New().String()
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		writer := &responseTracker{ResponseWriter: w}
		next.ServeHTTP(writer, r)

		s.logger.Infow("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.statusCode(),
			"remote_addr", r.RemoteAddr,
			"latency", time.Since(start).String(),
			"user_agent", r.UserAgent(),
		)
	})
}

type responseTracker struct {
	http.ResponseWriter
	wroteHeader bool
	status      int
}

func (w *responseTracker) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

func (w *responseTracker) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
