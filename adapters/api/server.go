// Package api serves phase predictions from one loaded model over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"eosphase/app"
	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/internal"
	"eosphase/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps prediction request bodies.
const maxBodyBytes = 1 << 16

// Server routes prediction requests to a shared read-only predictor.
type Server struct {
	router    *chi.Mux
	predictor *app.Predictor
	runs      ports.LedgerReaderPort
	logger    *internal.Logger
}

// NewServer creates a server for predictor. runs may be nil, which disables GET /runs.
func NewServer(predictor *app.Predictor, runs ports.LedgerReaderPort, logger *internal.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		predictor: predictor,
		runs:      runs,
		logger:    logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/predict", s.handlePredict)
	if s.runs != nil {
		s.router.Get("/runs", s.handleListRuns)
		s.router.Get("/runs/{id}", s.handleGetRun)
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving %s model on %s", s.predictor.Model().Kind, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down prediction server")
		return srv.Shutdown(shutdownCtx)
	}
}

// predictRequest requires all six base fields.
type predictRequest struct {
	YQ   *float64 `json:"YQ"`
	T    *float64 `json:"T"`
	MuBH *float64 `json:"muB_H"`
	MuBQ *float64 `json:"muB_Q"`
	MuQH *float64 `json:"muQ_H"`
	MuQQ *float64 `json:"muQ_Q"`
}

func (r predictRequest) input() (app.PredictInput, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{eos.ColYQ, r.YQ}, {eos.ColT, r.T}, {eos.ColMuBH, r.MuBH},
		{eos.ColMuBQ, r.MuBQ}, {eos.ColMuQH, r.MuQH}, {eos.ColMuQQ, r.MuQQ},
	}
	for _, f := range fields {
		if f.v == nil {
			return app.PredictInput{}, fmt.Errorf("field %q is required", f.name)
		}
	}
	return app.PredictInput{YQ: *r.YQ, T: *r.T, MuBH: *r.MuBH, MuBQ: *r.MuBQ, MuQH: *r.MuQH, MuQQ: *r.MuQQ}, nil
}

type predictResponse struct {
	PhasePred   int     `json:"phase_pred"`
	Phase       string  `json:"phase"`
	Probability float64 `json:"probability"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pred, err := s.predictor.Predict(in)
	if err != nil {
		if core.IsConfigError(err) || core.IsSchemaError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("predict failed: %v", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		PhasePred:   int(pred.Phase),
		Phase:       pred.Phase.String(),
		Probability: pred.Probability,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  string(s.predictor.Model().Kind),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := s.runs.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
