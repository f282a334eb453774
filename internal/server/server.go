// Package server exposes a metrics aggregator over HTTP so a presentation
// layer can read its state and trigger computations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oferdebug/projectzen/internal/config"
	"github.com/oferdebug/projectzen/internal/domain"
	"github.com/oferdebug/projectzen/internal/usecase"
)

// MetricsStore is the part of the aggregator the server drives.
type MetricsStore interface {
	Compute(ctx context.Context, repositoryID string) (*domain.ProjectMetrics, error)
	Refresh(partial domain.PartialMetrics)
	Snapshot() usecase.State
}

// Server serves the metrics state of one MetricsStore.
type Server struct {
	store  MetricsStore
	cfg    config.ServerConfig
	logger *log.Logger
	router chi.Router
}

type computeRequest struct {
	RepositoryID string `json:"repositoryId"`
}

type stateResponse struct {
	Status string `json:"status"`
	// RepositoryID names the repository Metrics belong to.
	RepositoryID string `json:"repositoryId,omitempty"`
	// RequestedRepositoryID names the repository of the latest computation.
	RequestedRepositoryID string                 `json:"requestedRepositoryId,omitempty"`
	Metrics               *domain.ProjectMetrics `json:"metrics"`
	IsLoading             bool                   `json:"isLoading"`
	Error                 *errorResponse         `json:"error"`
}

// failureResponse carries errors that happen before any computation runs.
type failureResponse struct {
	Error errorResponse `json:"error"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// New creates a Server and registers its routes.
func New(store MetricsStore, cfg config.ServerConfig, logger *log.Logger) *Server {
	s := &Server{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/metrics", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Patch("/", s.handleRefresh)
		r.Post("/compute", s.handleCompute)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStateResponse(s.store.Snapshot()))
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	metrics, err := s.store.Compute(r.Context(), req.RepositoryID)
	if errors.Is(err, usecase.ErrClosed) {
		writeFailure(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeJSON(w, statusFor(err), computeResponse(req.RepositoryID, metrics, err, s.store.Snapshot()))
}

// computeResponse describes the outcome of one Compute call, which a newer call
// may already have superseded. On failure the metrics are the latest stored ones.
func computeResponse(repositoryID string, metrics *domain.ProjectMetrics, err error, state usecase.State) stateResponse {
	resp := stateResponse{RequestedRepositoryID: repositoryID}
	if err != nil {
		resp.Status = usecase.StatusFailed.String()
		resp.RepositoryID = state.RepositoryID
		resp.Metrics = state.Metrics
		resp.Error = &errorResponse{Kind: errorKind(err), Message: err.Error()}
		return resp
	}
	resp.Status = usecase.StatusReady.String()
	resp.RepositoryID = repositoryID
	resp.Metrics = metrics
	return resp
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var partial domain.PartialMetrics
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	s.store.Refresh(partial)
	writeJSON(w, http.StatusOK, toStateResponse(s.store.Snapshot()))
}

func toStateResponse(state usecase.State) stateResponse {
	resp := stateResponse{
		Status:                state.Status.String(),
		RepositoryID:          state.RepositoryID,
		RequestedRepositoryID: state.RequestedID,
		Metrics:               state.Metrics,
		IsLoading:             state.IsLoading,
	}
	if state.Err != nil {
		resp.Error = &errorResponse{Kind: errorKind(state.Err), Message: state.Err.Error()}
	}
	return resp
}

func errorKind(err error) string {
	var networkErr *domain.NetworkError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidRepositoryID):
		return "invalid_repository_id"
	case errors.As(err, &networkErr):
		return "network"
	case errors.Is(err, domain.ErrProvider):
		return "provider"
	default:
		return "internal"
	}
}

func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch errorKind(err) {
	case "not_found":
		return http.StatusNotFound
	case "invalid_repository_id":
		return http.StatusBadRequest
	case "network", "provider":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, failureResponse{Error: errorResponse{Kind: kind, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
