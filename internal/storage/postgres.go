package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/ride-hail/internal/models"
)

// PostgresStore backs RideStore and PartyStore with Postgres. Conditional
// transitions are plain UPDATE ... WHERE id AND status: RowsAffected
// tells us whether we won, a follow-up SELECT tells us why we lost.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) CreateRide(ctx context.Context, r *models.Ride) error {
	var pickupLat, pickupLon, destLat, destLon sql.NullFloat64
	if c := r.Pickup.Coord; c != nil {
		pickupLat = sql.NullFloat64{Float64: c.Lat, Valid: true}
		pickupLon = sql.NullFloat64{Float64: c.Lon, Valid: true}
	}
	if c := r.Destination.Coord; c != nil {
		destLat = sql.NullFloat64{Float64: c.Lat, Valid: true}
		destLon = sql.NullFloat64{Float64: c.Lon, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rides(id, rider_id, driver_id, pickup_addr, pickup_lat, pickup_lon,
			dest_addr, dest_lat, dest_lon, vehicle_class, status, fare, distance_km,
			duration_sec, otp, created_at, updated_at)
		VALUES($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		r.ID, r.RiderID, r.DriverID, r.Pickup.Address, pickupLat, pickupLon,
		r.Destination.Address, destLat, destLon, string(r.Class), string(r.Status),
		r.Fare, r.DistanceKm, r.DurationSec, r.OTP, r.CreatedAt, r.UpdatedAt)
	return err
}

const rideColumns = `id, rider_id, COALESCE(driver_id, ''), pickup_addr, pickup_lat, pickup_lon,
	dest_addr, dest_lat, dest_lon, vehicle_class, status, fare, distance_km,
	duration_sec, otp, created_at, updated_at`

func (p *PostgresStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+rideColumns+` FROM rides WHERE id=$1`, id)
	return scanRide(row)
}

func scanRide(row *sql.Row) (*models.Ride, error) {
	var r models.Ride
	var class, status string
	var pLat, pLon, dLat, dLon sql.NullFloat64
	err := row.Scan(&r.ID, &r.RiderID, &r.DriverID, &r.Pickup.Address, &pLat, &pLon,
		&r.Destination.Address, &dLat, &dLon, &class, &status, &r.Fare, &r.DistanceKm,
		&r.DurationSec, &r.OTP, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Class = models.VehicleClass(class)
	r.Status = models.RideStatus(status)
	if pLat.Valid && pLon.Valid {
		r.Pickup.Coord = &models.Coord{Lat: pLat.Float64, Lon: pLon.Float64}
	}
	if dLat.Valid && dLon.Valid {
		r.Destination.Coord = &models.Coord{Lat: dLat.Float64, Lon: dLon.Float64}
	}
	return &r, nil
}

func (p *PostgresStore) AssignDriver(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE rides SET driver_id=$1, status=$2, updated_at=$3
		WHERE id=$4 AND status=$5`,
		driverID, string(models.StatusConfirmed), time.Now(), rideID, string(models.StatusRequested))
	if err != nil {
		return nil, err
	}
	return p.afterConditional(ctx, res, rideID)
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, rideID string, from, to models.RideStatus) (*models.Ride, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE rides SET status=$1, updated_at=$2
		WHERE id=$3 AND status=$4`,
		string(to), time.Now(), rideID, string(from))
	if err != nil {
		return nil, err
	}
	return p.afterConditional(ctx, res, rideID)
}

// afterConditional turns a zero-row conditional update into NotFound or
// Precondition by re-reading the ride.
func (p *PostgresStore) afterConditional(ctx context.Context, res sql.Result, rideID string) (*models.Ride, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := p.GetRide(ctx, rideID); err != nil {
			return nil, err
		}
		return nil, ErrPrecondition
	}
	return p.GetRide(ctx, rideID)
}

func (p *PostgresStore) DriverStats(ctx context.Context, driverID string) (models.DriverStats, error) {
	var s models.DriverStats
	var durationSec float64
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(fare),0), COALESCE(SUM(distance_km),0), COALESCE(SUM(duration_sec),0)
		FROM rides WHERE driver_id=$1 AND status=$2`,
		driverID, string(models.StatusCompleted)).
		Scan(&s.TotalRides, &s.TotalEarnings, &s.TotalDistance, &durationSec)
	if err != nil {
		return models.DriverStats{}, err
	}
	s.TotalHours = durationSec / 3600
	return s, nil
}

func (p *PostgresStore) GetRider(ctx context.Context, id string) (*models.Rider, error) {
	var r models.Rider
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(phone,'') FROM riders WHERE id=$1`, id).
		Scan(&r.ID, &r.Name, &r.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresStore) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	var d models.Driver
	var class, status string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone,''), vehicle_class, vehicle_capacity, vehicle_plate,
			status, lat, lon, updated_at
		FROM drivers WHERE id=$1`, id).
		Scan(&d.ID, &d.Name, &d.Phone, &class, &d.Vehicle.Capacity, &d.Vehicle.Plate,
			&status, &d.Loc.Lat, &d.Loc.Lon, &d.Updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Vehicle.Class = models.VehicleClass(class)
	d.Status = models.DriverStatus(status)
	return &d, nil
}

func (p *PostgresStore) PutRider(ctx context.Context, r *models.Rider) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO riders(id, name, phone) VALUES($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, phone=EXCLUDED.phone`,
		r.ID, r.Name, r.Phone)
	return err
}

func (p *PostgresStore) PutDriver(ctx context.Context, d *models.Driver) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO drivers(id, name, phone, vehicle_class, vehicle_capacity, vehicle_plate,
			status, lat, lon, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, phone=EXCLUDED.phone,
			vehicle_class=EXCLUDED.vehicle_class, vehicle_capacity=EXCLUDED.vehicle_capacity,
			vehicle_plate=EXCLUDED.vehicle_plate, status=EXCLUDED.status,
			lat=EXCLUDED.lat, lon=EXCLUDED.lon, updated_at=EXCLUDED.updated_at`,
		d.ID, d.Name, d.Phone, string(d.Vehicle.Class), d.Vehicle.Capacity, d.Vehicle.Plate,
		string(d.Status), d.Loc.Lat, d.Loc.Lon, time.Now())
	return err
}

func (p *PostgresStore) UpdateDriverStatus(ctx context.Context, id string, status models.DriverStatus) (*models.Driver, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE drivers SET status=$1, updated_at=$2 WHERE id=$3`,
		string(status), time.Now(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return p.GetDriver(ctx, id)
}

func (p *PostgresStore) UpdateDriverLocation(ctx context.Context, id string, loc models.Coord) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE drivers SET lat=$1, lon=$2, updated_at=$3 WHERE id=$4`,
		loc.Lat, loc.Lon, time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
