// Package http exposes workspaces over a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/bootstrap"
	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

const maxUploadBytes = 32 << 20

// Workspaces is the session registry the server reads from.
type Workspaces interface {
	CreateWorkspace() (*bootstrap.Workspace, error)
	Workspace(id string) (*bootstrap.Workspace, bool)
	CloseWorkspace(ctx context.Context, id string) (bool, error)
}

// Server is the HTTP server for the multitool API.
type Server struct {
	workspaces Workspaces
	logger     *zap.Logger
	addr       string
}

// NewServer creates a new HTTP server.
func NewServer(workspaces Workspaces, addr string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{workspaces: workspaces, logger: logger, addr: addr}
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("POST /api/sessions/{id}/document", s.withWorkspace(s.handleUploadDocument))
	mux.HandleFunc("DELETE /api/sessions/{id}/document", s.withWorkspace(s.handleRemoveDocument))
	mux.HandleFunc("POST /api/sessions/{id}/dataset", s.withWorkspace(s.handleUploadDataset))
	mux.HandleFunc("DELETE /api/sessions/{id}/dataset", s.withWorkspace(s.handleRemoveDataset))
	mux.HandleFunc("POST /api/sessions/{id}/turns", s.withWorkspace(s.handleTurn))
	mux.HandleFunc("GET /api/sessions/{id}/history", s.withWorkspace(s.handleHistory))
	mux.HandleFunc("GET /api/sessions/{id}/resources", s.withWorkspace(s.handleResources))
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // model calls can be slow
	}

	s.logger.Info("multitool server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type workspaceHandler func(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace)

func (s *Server) withWorkspace(next workspaceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := s.workspaces.Workspace(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		next(w, r, ws)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaces.CreateWorkspace()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         ws.ID,
		"created_at": ws.CreatedAt,
		"resources":  ws.Resources(),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	found, err := s.workspaces.CloseWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	name, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	if err := ws.LoadDocument(r.Context(), name, data); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Resources())
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	if err := ws.UnloadDocument(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Resources())
}

func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" required")
		return
	}
	defer file.Close()

	if err := ws.LoadDataset(r.Context(), header.Filename, file); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ws.Resources())
}

func (s *Server) handleRemoveDataset(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	ws.UnloadDataset()
	writeJSON(w, http.StatusOK, ws.Resources())
}

type turnRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode, err := bootstrap.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := ws.Turn(r.Context(), mode, req.Query)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	capability := entities.CapabilityChat
	if v := r.URL.Query().Get("capability"); v != "" {
		c, err := entities.ParseCapability(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		capability = c
	}

	entries := ws.History(capability)
	if entries == nil {
		entries = []entities.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"capability": capability,
		"entries":    entries,
	})
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request, ws *bootstrap.Workspace) {
	writeJSON(w, http.StatusOK, ws.Resources())
}

// readUpload accepts a multipart "file" field or a raw body named by the
// X-Filename header.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if name := r.Header.Get("X-Filename"); name != "" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return "", nil, false
		}
		return name, data, true
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" or X-Filename header required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}
	return header.Filename, data, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrOutputParse), errors.Is(err, entities.ErrModelInvocation):
		return http.StatusBadGateway
	case errors.Is(err, entities.ErrPreconditionViolation), errors.Is(err, entities.ErrResourceNotReady):
		return http.StatusConflict
	case errors.Is(err, entities.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Filename")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
