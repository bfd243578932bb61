// Package server exposes the query engine over HTTP.
//
// The API marshals the three engine operations and nothing else:
//
//	GET /healthz                 liveness probe
//	GET /v1/mesh                 mesh summary (node count, edges, fingerprint)
//	GET /v1/latency?from=&to=    minimum cumulative latency
//	GET /v1/route?from=&to=      shortest route with node sequence
//	GET /v1/distances/{node}     all reachable distances from one node
//
// Unreachable pairs answer 404 with code NO_ROUTE; out-of-range node
// ids answer 400 with code OUT_OF_RANGE_NODE. The two are distinct on
// purpose: one is topology, the other is caller misuse.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/latmesh/pkg/engine"
	apperrors "github.com/matzehuels/latmesh/pkg/errors"
)

// Server wraps an engine with an HTTP API.
type Server struct {
	engine *engine.Engine
	logger *log.Logger
	http   *http.Server
}

// Config holds the HTTP listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates a Server for e. A nil logger falls back to the default.
func New(e *engine.Engine, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{engine: e, logger: logger}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router builds the chi route tree. Exposed separately so tests can
// drive the handlers through httptest without a listener.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/mesh", s.handleMesh)
		r.Get("/latency", s.handleLatency)
		r.Get("/route", s.handleRoute)
		r.Get("/distances/{node}", s.handleDistances)
	})
	return r
}

// ListenAndServe starts the HTTP listener and blocks until the server
// stops. A closed server returns nil, mirroring http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// meshResponse is the payload of GET /v1/mesh.
type meshResponse struct {
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
	Fingerprint string `json:"fingerprint"`
}

func (s *Server) handleMesh(w http.ResponseWriter, r *http.Request) {
	g := s.engine.Graph()
	writeJSON(w, http.StatusOK, meshResponse{
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		Fingerprint: g.Fingerprint(),
	})
}

// latencyResponse is the payload of GET /v1/latency.
type latencyResponse struct {
	From    int   `json:"from"`
	To      int   `json:"to"`
	Latency int64 `json:"latency"`
}

func (s *Server) handleLatency(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.pairParams(w, r)
	if !ok {
		return
	}
	latency, err := s.engine.MinLatency(r.Context(), from, to)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, latencyResponse{From: from, To: to, Latency: latency})
}

// routeResponse is the payload of GET /v1/route.
type routeResponse struct {
	From    int   `json:"from"`
	To      int   `json:"to"`
	Latency int64 `json:"latency"`
	Nodes   []int `json:"nodes"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.pairParams(w, r)
	if !ok {
		return
	}
	route, err := s.engine.Path(r.Context(), from, to)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, routeResponse{From: from, To: to, Latency: route.Latency, Nodes: route.Nodes})
}

// distancesResponse is the payload of GET /v1/distances/{node}.
type distancesResponse struct {
	From      int           `json:"from"`
	Distances map[int]int64 `json:"distances"`
}

func (s *Server) handleDistances(w http.ResponseWriter, r *http.Request) {
	node, err := strconv.Atoi(chi.URLParam(r, "node"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "node must be an integer")
		return
	}
	distances, err := s.engine.DistancesFrom(r.Context(), node)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, distancesResponse{From: node, Distances: distances})
}

// pairParams parses the from/to query parameters shared by the latency
// and route endpoints, writing a 400 response on failure.
func (s *Server) pairParams(w http.ResponseWriter, r *http.Request) (from, to int, ok bool) {
	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "from must be an integer")
		return 0, 0, false
	}
	to, err = strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "to must be an integer")
		return 0, 0, false
	}
	return from, to, true
}

// errorResponse is the uniform error payload.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// writeEngineError maps engine sentinel errors onto HTTP statuses and
// machine-readable codes.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNoRoute):
		s.writeError(w, http.StatusNotFound, apperrors.ErrCodeNoRoute, err.Error())
	case errors.Is(err, engine.ErrNodeOutOfRange):
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeOutOfRangeNode, err.Error())
	default:
		s.logger.Error("query failed", "err", err)
		// Structured errors keep their code in the payload; the message
		// stays generic so internals never leak to API clients.
		code := apperrors.GetCode(err)
		if code == "" {
			code = apperrors.ErrCodeInternal
		}
		s.writeError(w, http.StatusInternalServerError, code, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code apperrors.Code, msg string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
