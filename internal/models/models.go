package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location pairs the user-entered address with its resolved coordinate,
// which stays nil until geocoding succeeds.
type Location struct {
	Address string `json:"address"`
	Coord   *Coord `json:"coord,omitempty"`
}

type VehicleClass string

const (
	ClassMini  VehicleClass = "mini"
	ClassSedan VehicleClass = "sedan"
	ClassAuto  VehicleClass = "auto"
	ClassMoto  VehicleClass = "moto"
)

func (c VehicleClass) Valid() bool {
	switch c {
	case ClassMini, ClassSedan, ClassAuto, ClassMoto:
		return true
	}
	return false
}

type RideStatus string

const (
	StatusRequested RideStatus = "requested"
	StatusConfirmed RideStatus = "confirmed"
	StatusOngoing   RideStatus = "ongoing"
	StatusCompleted RideStatus = "completed"
	StatusCancelled RideStatus = "cancelled"
)

// transitions is the full set of legal status moves. Anything absent is
// rejected, which makes every terminal state immutable.
var transitions = map[RideStatus][]RideStatus{
	StatusRequested: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusOngoing, StatusCancelled},
	StatusOngoing:   {StatusCompleted},
}

func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Ride struct {
	ID          string       `json:"id"`
	RiderID     string       `json:"rider_id"`
	DriverID    string       `json:"driver_id,omitempty"` // empty until confirmed
	Pickup      Location     `json:"pickup"`
	Destination Location     `json:"destination"`
	Class       VehicleClass `json:"vehicle_class"`
	Status      RideStatus   `json:"status"`
	Fare        float64      `json:"fare"`
	DistanceKm  float64      `json:"distance_km"`
	DurationSec float64      `json:"duration_sec"`
	OTP         string       `json:"otp,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Sanitized returns a copy with the trip-start secret stripped. Every
// payload except the rider's create-ride response goes through this.
func (r Ride) Sanitized() Ride {
	r.OTP = ""
	return r
}

type DriverStatus string

const (
	DriverActive   DriverStatus = "active"
	DriverInactive DriverStatus = "inactive"
	DriverBusy     DriverStatus = "busy"
)

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverActive, DriverInactive, DriverBusy:
		return true
	}
	return false
}

type Vehicle struct {
	Class    VehicleClass `json:"class"`
	Capacity int          `json:"capacity"`
	Plate    string       `json:"plate"`
}

type Driver struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Phone   string       `json:"phone,omitempty"`
	Vehicle Vehicle      `json:"vehicle"`
	Status  DriverStatus `json:"status"`
	Loc     Coord        `json:"loc"`
	Updated time.Time    `json:"updated"`
}

type Rider struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// FareQuote is the estimator output for a single vehicle class.
type FareQuote struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationSec float64 `json:"duration_sec"`
	Fare        float64 `json:"fare"`
}

// DriverStats aggregates a driver's completed rides.
type DriverStats struct {
	TotalRides    int     `json:"total_rides"`
	TotalEarnings float64 `json:"total_earnings"`
	TotalDistance float64 `json:"total_distance_km"`
	TotalHours    float64 `json:"total_hours"`
}

// LocationUpdate is the live-channel payload a driver sends while moving;
// it is also the Kafka message shape for the ingest pipeline.
type LocationUpdate struct {
	DriverID string    `json:"driver_id"`
	Loc      Coord     `json:"loc"`
	At       time.Time `json:"at"`
}

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// Principal is the authenticated party the identity service hands us.
// The core trusts it fully.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
