// Package dispatch fans ride offers out to nearby connected drivers and
// delivers lifecycle events to the parties that should hear about them.
// Delivery is at-most-once and best-effort: state has already been
// persisted by the time anything here runs, so failures are logged and
// swallowed, never surfaced to the lifecycle operation that triggered them.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/geocode"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
	"github.com/example/ride-hail/internal/presence"
)

const (
	EventNewRide       = "new-ride"
	EventRideConfirmed = "ride-confirmed"
	EventRideStarted   = "ride-started"
	EventRideEnded     = "ride-ended"
	EventRideCancelled = "ride-cancelled"
)

// Notifier wires the geo index, geocoder and presence registry together.
type Notifier struct {
	Geo      geo.Index
	Resolver geocode.Resolver
	Presence *presence.Registry
	Logger   *slog.Logger

	// RadiusKm is the driver discovery radius around the pickup point.
	RadiusKm float64
	// ResolveTimeout bounds the geocoding call during discovery.
	ResolveTimeout time.Duration
}

func NewNotifier(g geo.Index, r geocode.Resolver, p *presence.Registry, logger *slog.Logger) *Notifier {
	return &Notifier{
		Geo:            g,
		Resolver:       r,
		Presence:       p,
		Logger:         logger,
		RadiusKm:       10,
		ResolveTimeout: 3 * time.Second,
	}
}

// OfferRide finds drivers in radius of the pickup point and pushes a
// new-ride offer to each one that is currently connected. The pickup
// coordinate resolved at creation time is reused when present; otherwise
// the address is resolved here under a short timeout. Any failure skips
// discovery for this ride; the ride itself already exists.
func (n *Notifier) OfferRide(ctx context.Context, ride models.Ride) {
	var pickup models.Coord
	if ride.Pickup.Coord != nil {
		pickup = *ride.Pickup.Coord
	} else {
		rctx, cancel := context.WithTimeout(ctx, n.ResolveTimeout)
		defer cancel()
		resolved, err := n.Resolver.Resolve(rctx, ride.Pickup.Address)
		if err != nil {
			observability.DispatchSkipped.Inc()
			n.Logger.Warn("pickup resolution failed, skipping discovery",
				"ride_id", ride.ID, "error", err)
			return
		}
		pickup = resolved
	}

	driverIDs, err := n.Geo.FindNearby(ctx, pickup, n.RadiusKm)
	if err != nil {
		observability.DispatchSkipped.Inc()
		n.Logger.Warn("geo index query failed, skipping discovery",
			"ride_id", ride.ID, "error", err)
		return
	}

	payload := ride.Sanitized()
	sent := 0
	for _, id := range driverIDs {
		sess, ok := n.Presence.Lookup(id)
		if !ok {
			continue
		}
		if err := sess.Send(EventNewRide, payload); err != nil {
			n.Logger.Warn("offer push failed", "ride_id", ride.ID, "driver_id", id, "error", err)
			continue
		}
		observability.OffersSentTotal.Inc()
		sent++
	}
	n.Logger.Info("ride offered", "ride_id", ride.ID,
		"candidates", len(driverIDs), "offers_sent", sent)
}

// NotifyParty delivers one lifecycle event to one party, dropping it
// silently when the party has no live connection.
func (n *Notifier) NotifyParty(partyID, event string, ride models.Ride) {
	sess, ok := n.Presence.Lookup(partyID)
	if !ok {
		observability.LifecycleEventsDropped.WithLabelValues(event).Inc()
		return
	}
	if err := sess.Send(event, ride.Sanitized()); err != nil {
		n.Logger.Warn("event push failed", "ride_id", ride.ID,
			"party_id", partyID, "event", event, "error", err)
		return
	}
	observability.LifecycleEventsSent.WithLabelValues(event).Inc()
}
