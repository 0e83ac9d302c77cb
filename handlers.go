package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// maxBodyBytes caps request bodies; hazard rings can be long but not huge
const maxBodyBytes = 1 << 20

// HistoryReader lists recorded routes
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]HistoryRecord, error)
}

// Server exposes the planner and the hazard registry over HTTP.
type Server struct {
	planner  *Planner
	registry *HazardRegistry
	history  HistoryReader
	metrics  *Collector
	log      Logger
	router   *mux.Router
}

// NewServer builds the router. history and metrics may be nil.
func NewServer(planner *Planner, registry *HazardRegistry, history HistoryReader, metrics *Collector, log Logger) *Server {
	if log == nil {
		log = NoopLogger()
	}
	s := &Server{
		planner:  planner,
		registry: registry,
		history:  history,
		metrics:  metrics,
		log:      log,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestLogger)

	s.router.HandleFunc("/route", s.routeHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/hazards", s.listHazardsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/hazards", s.createHazardHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/hazards/{id}", s.getHazardHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/hazards/{id}", s.updateHazardHandler).Methods(http.MethodPut)
	s.router.HandleFunc("/hazards/{id}", s.deleteHazardHandler).Methods(http.MethodDelete)
	s.router.HandleFunc("/routes/history", s.historyHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/disasters", s.disastersHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// ServeHTTP answers CORS preflights before routing so that OPTIONS never
// reaches the method matchers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsMiddleware(s.router).ServeHTTP(w, r)
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, log := WithRequestLogger(r.Context(), s.log)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Debug(ctx, "request handled",
			String("method", r.Method),
			String("path", r.URL.Path),
			Int("status", rec.status),
			Float("duration_ms", float64(time.Since(started).Microseconds())/1000))
	})
}

// routeResponse is the route summary plus attempt diagnostics
type routeResponse struct {
	RouteSummary
	Attempt             uint64         `json:"attempt"`
	State               AttemptState   `json:"state"`
	ProviderCalls       int            `json:"providerCalls"`
	Waypoint            *LatLng        `json:"waypoint,omitempty"`
	IntersectingHazards []string       `json:"intersectingHazards,omitempty"`
	Unresolved          string         `json:"unresolved,omitempty"`
	Transitions         []AttemptState `json:"transitions"`
}

func newRouteResponse(res *AttemptResult) routeResponse {
	out := routeResponse{
		RouteSummary:        res.Summary(),
		Attempt:             res.Sequence,
		State:               res.State,
		ProviderCalls:       res.ProviderCalls,
		IntersectingHazards: res.BaselineHits,
		Transitions:         res.Transitions,
	}
	if res.Waypoint != nil {
		wp := latLngOf(*res.Waypoint)
		out.Waypoint = &wp
	}
	if res.Unresolved != nil {
		out.Unresolved = res.Unresolved.Error()
	}
	return out
}

// POST /route
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := s.planner.Plan(r.Context(), req)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(res))
}

// GET /hazards
func (s *Server) listHazardsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot())
}

// POST /hazards
func (s *Server) createHazardHandler(w http.ResponseWriter, r *http.Request) {
	var h Hazard
	if err := decodeJSON(w, r, &h); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	id, err := s.registry.Add(h)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	stored, _ := s.registry.Get(id)
	LoggerFromContext(r.Context(), s.log).Info(r.Context(), "hazard added",
		String("hazard_id", id), String("kind", string(stored.Kind)))
	writeJSON(w, http.StatusCreated, stored)
}

// GET /hazards/{id}
func (s *Server) getHazardHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h, ok := s.registry.Get(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrHazardNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// PUT /hazards/{id}
func (s *Server) updateHazardHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var h Hazard
	if err := decodeJSON(w, r, &h); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.registry.Update(id, h); err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	stored, _ := s.registry.Get(id)
	writeJSON(w, http.StatusOK, stored)
}

// DELETE /hazards/{id}
func (s *Server) deleteHazardHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registry.Remove(id); err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	LoggerFromContext(r.Context(), s.log).Info(r.Context(), "hazard removed", String("hazard_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GET /routes/history?limit=
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("route history is disabled"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GET /disasters
func (s *Server) disastersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Disasters())
}

// GET /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"hazards": s.registry.Len(),
		"history": s.history != nil,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidHazard):
		return http.StatusBadRequest
	case errors.Is(err, ErrHazardNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	log := LoggerFromContext(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", Int("status", status), Err(err))
	} else {
		log.Debug(r.Context(), "request rejected", Int("status", status), Err(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
