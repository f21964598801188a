// Package ride owns the trip lifecycle: requested → confirmed → ongoing →
// completed, with cancellation possible until the trip starts. It is the
// single source of truth for what may happen next to a ride.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-hail/internal/dispatch"
	"github.com/example/ride-hail/internal/fare"
	"github.com/example/ride-hail/internal/geocode"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
	"github.com/example/ride-hail/internal/storage"
)

// Notifier is the slice of the dispatch layer the lifecycle needs.
// Everything behind it is fire-and-forget.
type Notifier interface {
	OfferRide(ctx context.Context, ride models.Ride)
	NotifyParty(partyID, event string, ride models.Ride)
}

type Service struct {
	Store    storage.RideStore
	Parties  storage.PartyStore
	Resolver geocode.Resolver
	Notifier Notifier
	Logger   *slog.Logger

	OTPLength      int
	ResolveTimeout time.Duration
}

func NewService(store storage.RideStore, parties storage.PartyStore, resolver geocode.Resolver, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		Store:          store,
		Parties:        parties,
		Resolver:       resolver,
		Notifier:       notifier,
		Logger:         logger,
		OTPLength:      DefaultOTPLength,
		ResolveTimeout: 3 * time.Second,
	}
}

// RideWithRider is the confirm response shape: the winning driver gets the
// rider's contact details along with the updated ride.
type RideWithRider struct {
	models.Ride
	Rider *models.Rider `json:"rider,omitempty"`
}

func (s *Service) resolve(ctx context.Context, address string) (models.Coord, error) {
	rctx, cancel := context.WithTimeout(ctx, s.ResolveTimeout)
	defer cancel()
	coord, err := s.Resolver.Resolve(rctx, address)
	if err != nil {
		if errors.Is(err, geocode.ErrNoMatch) {
			return models.Coord{}, fmt.Errorf("%w: %q", ErrInvalidInput, address)
		}
		return models.Coord{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return coord, nil
}

// Request creates a ride in requested state with a quoted fare and a fresh
// OTP, then triggers driver discovery. Discovery is best-effort: its
// failure never fails ride creation.
func (s *Service) Request(ctx context.Context, riderID, pickup, destination string, class models.VehicleClass) (*models.Ride, error) {
	riderID = strings.TrimSpace(riderID)
	pickup = strings.TrimSpace(pickup)
	destination = strings.TrimSpace(destination)
	if riderID == "" || pickup == "" || destination == "" {
		return nil, fmt.Errorf("%w: rider, pickup and destination are required", ErrInvalidInput)
	}
	if !class.Valid() {
		return nil, fmt.Errorf("%w: unknown vehicle class %q", ErrInvalidInput, class)
	}

	origin, err := s.resolve(ctx, pickup)
	if err != nil {
		return nil, err
	}
	dest, err := s.resolve(ctx, destination)
	if err != nil {
		return nil, err
	}
	quote := fare.Estimate(origin, dest, class)

	otp, err := generateOTP(s.OTPLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r := &models.Ride{
		ID:          uuid.NewString(),
		RiderID:     riderID,
		Pickup:      models.Location{Address: pickup, Coord: &origin},
		Destination: models.Location{Address: destination, Coord: &dest},
		Class:       class,
		Status:      models.StatusRequested,
		Fare:        quote.Fare,
		DistanceKm:  quote.DistanceKm,
		DurationSec: quote.DurationSec,
		OTP:         otp,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateRide(ctx, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	observability.RidesCreatedTotal.Inc()
	s.Logger.Info("ride requested", "ride_id", r.ID, "rider_id", riderID, "class", class)

	s.Notifier.OfferRide(ctx, *r)
	return r, nil
}

// Confirm assigns the first driver to claim a requested ride. The store's
// conditional update is the sole arbiter of the race: a second driver gets
// ErrConflict no matter how close the finish was.
func (s *Service) Confirm(ctx context.Context, rideID, driverID string) (*RideWithRider, error) {
	if rideID == "" || driverID == "" {
		return nil, fmt.Errorf("%w: ride and driver are required", ErrInvalidInput)
	}
	r, err := s.Store.AssignDriver(ctx, rideID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrPrecondition):
			return nil, s.confirmRaceError(ctx, rideID)
		default:
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}
	s.Logger.Info("ride confirmed", "ride_id", r.ID, "driver_id", driverID)

	out := &RideWithRider{Ride: r.Sanitized()}
	if rider, err := s.Parties.GetRider(ctx, r.RiderID); err == nil {
		out.Rider = rider
	}
	s.Notifier.NotifyParty(r.RiderID, dispatch.EventRideConfirmed, *r)
	return out, nil
}

// confirmRaceError distinguishes "someone else won" from "the ride is no
// longer confirmable at all".
func (s *Service) confirmRaceError(ctx context.Context, rideID string) error {
	r, err := s.Store.GetRide(ctx, rideID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if r.Status == models.StatusConfirmed || r.Status == models.StatusOngoing {
		observability.ConfirmConflicts.Inc()
		return ErrConflict
	}
	return ErrInvalidState
}

// Start moves a confirmed ride to ongoing once the assigned driver proves
// physical pickup with the rider's OTP.
func (s *Service) Start(ctx context.Context, rideID, driverID, otp string) (*models.Ride, error) {
	r, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusConfirmed {
		return nil, ErrInvalidState
	}
	if r.DriverID != driverID {
		return nil, ErrForbidden
	}
	if otp == "" || r.OTP != otp {
		return nil, ErrInvalidOtp
	}

	updated, err := s.transition(ctx, rideID, models.StatusConfirmed, models.StatusOngoing)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("ride started", "ride_id", rideID, "driver_id", driverID)
	s.Notifier.NotifyParty(updated.RiderID, dispatch.EventRideStarted, *updated)
	return updated, nil
}

// End completes an ongoing ride. Fare, distance and duration were fixed at
// creation; completion makes the ride immutable.
func (s *Service) End(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	r, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusOngoing {
		return nil, ErrInvalidState
	}
	if r.DriverID != driverID {
		return nil, ErrForbidden
	}

	updated, err := s.transition(ctx, rideID, models.StatusOngoing, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("ride ended", "ride_id", rideID, "driver_id", driverID, "fare", updated.Fare)
	s.Notifier.NotifyParty(updated.RiderID, dispatch.EventRideEnded, *updated)
	s.Notifier.NotifyParty(updated.DriverID, dispatch.EventRideEnded, *updated)
	return updated, nil
}

// Cancel tears a ride down before it starts. The rider may cancel from
// requested or confirmed; the assigned driver only from confirmed.
func (s *Service) Cancel(ctx context.Context, rideID string, p models.Principal) (*models.Ride, error) {
	r, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	switch p.Role {
	case models.RoleRider:
		if r.RiderID != p.ID {
			return nil, ErrForbidden
		}
		if r.Status != models.StatusRequested && r.Status != models.StatusConfirmed {
			return nil, ErrInvalidState
		}
	case models.RoleDriver:
		if r.Status != models.StatusConfirmed {
			return nil, ErrInvalidState
		}
		if r.DriverID != p.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	updated, err := s.transition(ctx, rideID, r.Status, models.StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("ride cancelled", "ride_id", rideID, "by", p.ID, "role", p.Role)

	// Tell the counterparty, if there is one yet.
	switch p.Role {
	case models.RoleRider:
		if updated.DriverID != "" {
			s.Notifier.NotifyParty(updated.DriverID, dispatch.EventRideCancelled, *updated)
		}
	case models.RoleDriver:
		s.Notifier.NotifyParty(updated.RiderID, dispatch.EventRideCancelled, *updated)
	}
	return updated, nil
}

// Quote prices a trip for every vehicle class without persisting anything.
func (s *Service) Quote(ctx context.Context, pickup, destination string) (map[models.VehicleClass]models.FareQuote, error) {
	pickup = strings.TrimSpace(pickup)
	destination = strings.TrimSpace(destination)
	if pickup == "" || destination == "" {
		return nil, fmt.Errorf("%w: pickup and destination are required", ErrInvalidInput)
	}
	origin, err := s.resolve(ctx, pickup)
	if err != nil {
		return nil, err
	}
	dest, err := s.resolve(ctx, destination)
	if err != nil {
		return nil, err
	}
	return fare.EstimateAll(origin, dest), nil
}

func (s *Service) getRide(ctx context.Context, rideID string) (*models.Ride, error) {
	r, err := s.Store.GetRide(ctx, rideID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return r, nil
}

func (s *Service) transition(ctx context.Context, rideID string, from, to models.RideStatus) (*models.Ride, error) {
	if !from.CanTransitionTo(to) {
		return nil, ErrInvalidState
	}
	r, err := s.Store.UpdateStatus(ctx, rideID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, storage.ErrPrecondition):
			return nil, ErrInvalidState
		default:
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}
	return r, nil
}
