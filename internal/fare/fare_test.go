package fare

import (
	"testing"

	"github.com/example/ride-hail/internal/models"
)

func TestEstimateZeroDistanceYieldsMinimum(t *testing.T) {
	c := models.Coord{Lat: 12.9716, Lon: 77.5946}
	for class, rate := range Rates {
		q := Estimate(c, c, class)
		if q.DistanceKm != 0 {
			t.Fatalf("%s: expected 0 distance, got %f", class, q.DistanceKm)
		}
		if q.DurationSec != 0 {
			t.Fatalf("%s: expected 0 duration, got %f", class, q.DurationSec)
		}
		if q.Fare != rate.Minimum {
			t.Fatalf("%s: expected minimum fare %f, got %f", class, rate.Minimum, q.Fare)
		}
	}
}

func TestEstimateMonotonicInDistance(t *testing.T) {
	origin := models.Coord{Lat: 0, Lon: 0}
	prev := 0.0
	for i := 1; i <= 10; i++ {
		dest := models.Coord{Lat: 0, Lon: float64(i) * 0.05}
		q := Estimate(origin, dest, models.ClassMini)
		if q.Fare < prev {
			t.Fatalf("fare decreased at step %d: %f < %f", i, q.Fare, prev)
		}
		prev = q.Fare
	}
}

func TestEstimateDeterministic(t *testing.T) {
	a := models.Coord{Lat: 28.6139, Lon: 77.2090}
	b := models.Coord{Lat: 28.5355, Lon: 77.3910}
	q1 := Estimate(a, b, models.ClassSedan)
	q2 := Estimate(a, b, models.ClassSedan)
	if q1 != q2 {
		t.Fatalf("quotes differ: %+v vs %+v", q1, q2)
	}
}

func TestEstimateAllCoversEveryClass(t *testing.T) {
	a := models.Coord{Lat: 0, Lon: 0}
	b := models.Coord{Lat: 0.1, Lon: 0.1}
	quotes := EstimateAll(a, b)
	if len(quotes) != len(Rates) {
		t.Fatalf("expected %d quotes, got %d", len(Rates), len(quotes))
	}
	for class, q := range quotes {
		if q.Fare <= 0 {
			t.Fatalf("%s: non-positive fare %f", class, q.Fare)
		}
	}
}
