package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/ride-hail/internal/geocode"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/ride"
	"github.com/example/ride-hail/internal/storage"
)

type requestRideBody struct {
	Pickup      string              `json:"pickup"`
	Destination string              `json:"destination"`
	Class       models.VehicleClass `json:"vehicle_class"`
}

func (s *Server) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	var body requestRideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"malformed body"})
		return
	}
	created, err := s.Rides.Request(r.Context(), p.ID, body.Pickup, body.Destination, body.Class)
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	// The create response is the one place the OTP travels: the rider
	// hands it to the driver at pickup.
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleFare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quotes, err := s.Rides.Quote(r.Context(), q.Get("pickup"), q.Get("destination"))
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

type confirmRideBody struct {
	RideID string `json:"ride_id"`
}

func (s *Server) handleConfirmRide(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	var body confirmRideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"malformed body"})
		return
	}
	confirmed, err := s.Rides.Confirm(r.Context(), body.RideID, p.ID)
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmed)
}

type startRideBody struct {
	RideID string `json:"ride_id"`
	OTP    string `json:"otp"`
}

func (s *Server) handleStartRide(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	var body startRideBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"malformed body"})
		return
	}
	started, err := s.Rides.Start(r.Context(), body.RideID, p.ID, body.OTP)
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, started.Sanitized())
}

func (s *Server) handleEndRide(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	ended, err := s.Rides.End(r.Context(), mux.Vars(r)["id"], p.ID)
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ended.Sanitized())
}

func (s *Server) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	cancelled, err := s.Rides.Cancel(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled.Sanitized())
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	got, err := s.Store.GetRide(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeRideError(w, ride.ErrNotFound)
			return
		}
		s.writeRideError(w, err)
		return
	}
	if got.RiderID != p.ID && got.DriverID != p.ID {
		s.writeRideError(w, ride.ErrForbidden)
		return
	}
	out := *got
	// Only the rider may re-read the trip secret, and only before start.
	if p.ID != got.RiderID || (got.Status != models.StatusRequested && got.Status != models.StatusConfirmed) {
		out = out.Sanitized()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDriverStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	d, err := s.Parties.GetDriver(r.Context(), p.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeRideError(w, ride.ErrNotFound)
			return
		}
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"driver_id": d.ID,
		"status":    d.Status,
		"online":    s.Presence.Connected(d.ID),
	})
}

type driverStatusBody struct {
	Status models.DriverStatus `json:"status"`
}

func (s *Server) handleUpdateDriverStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	var body driverStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"malformed body"})
		return
	}
	if !body.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{"invalid status"})
		return
	}
	d, err := s.Parties.UpdateDriverStatus(r.Context(), p.ID, body.Status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeRideError(w, ride.ErrNotFound)
			return
		}
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDriverStats(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFromContext(r.Context())
	stats, err := s.Store.DriverStats(r.Context(), p.ID)
	if err != nil {
		s.writeRideError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	names, err := s.Resolver.Suggest(r.Context(), r.URL.Query().Get("input"))
	if err != nil {
		if errors.Is(err, geocode.ErrShortInput) {
			writeJSON(w, http.StatusBadRequest, errorBody{err.Error()})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, errorBody{"suggestions unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": names})
}

type createOrderBody struct {
	Amount int64             `json:"amount"`
	Notes  map[string]string `json:"notes,omitempty"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if s.Payments == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{"payments not configured"})
		return
	}
	var body createOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"malformed body"})
		return
	}
	if body.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{"amount must be positive"})
		return
	}
	order, err := s.Payments.CreateOrder(r.Context(), body.Amount, body.Notes)
	if err != nil {
		s.logger.Error("create order failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{"unable to create order"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type verifyPaymentBody struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	if s.Payments == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{"payments not configured"})
		return
	}
	var body verifyPaymentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{"malformed body"})
		return
	}
	if body.PaymentID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{"payment_id is required"})
		return
	}
	v, err := s.Payments.Verify(r.Context(), body.PaymentID, body.OrderID, body.Signature)
	if err != nil {
		s.logger.Error("payment verification failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{"verification error"})
		return
	}
	code := http.StatusOK
	if !v.Valid {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, v)
}
