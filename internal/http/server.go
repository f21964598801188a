// Package httpapi exposes the ride lifecycle over HTTP and hosts the
// per-party live channel that feeds the presence registry.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/geocode"
	"github.com/example/ride-hail/internal/ingest"
	"github.com/example/ride-hail/internal/payments"
	"github.com/example/ride-hail/internal/presence"
	"github.com/example/ride-hail/internal/ride"
	"github.com/example/ride-hail/internal/storage"
)

type Server struct {
	Rides    *ride.Service
	Parties  storage.PartyStore
	Store    storage.RideStore
	Resolver geocode.Resolver
	Payments payments.Provider // nil when no provider is configured
	Presence *presence.Registry
	Geo      geo.Index
	Kafka    *ingest.KafkaProducer // nil when kafka is not configured

	logger    *slog.Logger
	jwtSecret []byte
	mux       *mux.Router
}

type Deps struct {
	Rides    *ride.Service
	Parties  storage.PartyStore
	Store    storage.RideStore
	Resolver geocode.Resolver
	Payments payments.Provider
	Presence *presence.Registry
	Geo      geo.Index
	Kafka    *ingest.KafkaProducer

	Logger    *slog.Logger
	JWTSecret string
}

func NewServer(d Deps) *Server {
	s := &Server{
		Rides:     d.Rides,
		Parties:   d.Parties,
		Store:     d.Store,
		Resolver:  d.Resolver,
		Payments:  d.Payments,
		Presence:  d.Presence,
		Geo:       d.Geo,
		Kafka:     d.Kafka,
		logger:    d.Logger,
		jwtSecret: []byte(d.JWTSecret),
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)

	api.Handle("/rides", s.requireRole(roleRider, s.handleRequestRide)).Methods("POST")
	api.HandleFunc("/rides/fare", s.handleFare).Methods("GET")
	api.Handle("/rides/confirm", s.requireRole(roleDriver, s.handleConfirmRide)).Methods("POST")
	api.Handle("/rides/start", s.requireRole(roleDriver, s.handleStartRide)).Methods("POST")
	api.Handle("/rides/{id}/end", s.requireRole(roleDriver, s.handleEndRide)).Methods("POST")
	api.HandleFunc("/rides/{id}/cancel", s.handleCancelRide).Methods("POST")
	api.HandleFunc("/rides/{id}", s.handleGetRide).Methods("GET")

	api.Handle("/drivers/status", s.requireRole(roleDriver, s.handleDriverStatus)).Methods("GET")
	api.Handle("/drivers/status", s.requireRole(roleDriver, s.handleUpdateDriverStatus)).Methods("PATCH")
	api.Handle("/drivers/stats", s.requireRole(roleDriver, s.handleDriverStats)).Methods("GET")

	api.HandleFunc("/geocode/suggestions", s.handleSuggestions).Methods("GET")

	api.HandleFunc("/payments/order", s.handleCreateOrder).Methods("POST")
	api.HandleFunc("/payments/verify", s.handleVerifyPayment).Methods("POST")

	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeRideError maps the lifecycle taxonomy onto HTTP status codes.
func (s *Server) writeRideError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ride.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
	case errors.Is(err, ride.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{err.Error()})
	case errors.Is(err, ride.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{err.Error()})
	case errors.Is(err, ride.ErrInvalidOtp):
		writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
	case errors.Is(err, ride.ErrConflict), errors.Is(err, ride.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorBody{err.Error()})
	case errors.Is(err, ride.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{err.Error()})
	default:
		s.logger.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{"internal error"})
	}
}
