// Package storage persists rides and parties. The only concurrency-safety
// mechanism for the confirm race lives here: AssignDriver and UpdateStatus
// are conditional updates keyed on the expected current status, so at most
// one of N concurrent confirm attempts can win regardless of how many
// workers handle them.
package storage

import (
	"context"
	"errors"

	"github.com/example/ride-hail/internal/models"
)

var (
	// ErrNotFound means no entity exists under the given key.
	ErrNotFound = errors.New("storage: not found")
	// ErrPrecondition means a conditional update found the entity in a
	// different status than expected; the caller lost the race or is
	// attempting an illegal transition.
	ErrPrecondition = errors.New("storage: status precondition failed")
)

// RideStore defines persistence operations for rides.
type RideStore interface {
	CreateRide(ctx context.Context, r *models.Ride) error
	GetRide(ctx context.Context, id string) (*models.Ride, error)
	// AssignDriver atomically moves a requested ride to confirmed and
	// sets the driver, failing with ErrPrecondition if the ride is no
	// longer in requested.
	AssignDriver(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	// UpdateStatus atomically moves a ride from one status to another,
	// failing with ErrPrecondition if the current status differs.
	UpdateStatus(ctx context.Context, rideID string, from, to models.RideStatus) (*models.Ride, error)
	// DriverStats aggregates completed rides for one driver.
	DriverStats(ctx context.Context, driverID string) (models.DriverStats, error)
}

// PartyStore defines persistence operations for riders and drivers.
type PartyStore interface {
	GetRider(ctx context.Context, id string) (*models.Rider, error)
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
	PutRider(ctx context.Context, r *models.Rider) error
	PutDriver(ctx context.Context, d *models.Driver) error
	UpdateDriverStatus(ctx context.Context, id string, status models.DriverStatus) (*models.Driver, error)
	UpdateDriverLocation(ctx context.Context, id string, loc models.Coord) error
}
