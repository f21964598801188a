// Package fare quotes trip prices. Estimate is deliberately pure: the
// same inputs must always produce the same quote so that fares shown to
// riders can be reproduced for audit later.
package fare

import (
	"math"

	"github.com/example/ride-hail/internal/geo"
	"github.com/example/ride-hail/internal/models"
)

// AvgSpeedKmph is the assumed city driving speed used to derive trip
// duration from great-circle distance.
const AvgSpeedKmph = 30.0

// Rate holds the pricing knobs for one vehicle class. Fare is
// base + perKm*distance + perMin*minutes, floored at Minimum.
type Rate struct {
	Base    float64
	PerKm   float64
	PerMin  float64
	Minimum float64
}

// Rates is the default rate card. Amounts are in the platform currency's
// base unit (rupees).
var Rates = map[models.VehicleClass]Rate{
	models.ClassMini:  {Base: 50, PerKm: 10, PerMin: 2, Minimum: 50},
	models.ClassSedan: {Base: 80, PerKm: 15, PerMin: 3, Minimum: 80},
	models.ClassAuto:  {Base: 30, PerKm: 8, PerMin: 1.5, Minimum: 30},
	models.ClassMoto:  {Base: 20, PerKm: 5, PerMin: 1, Minimum: 20},
}

// Estimate quotes one vehicle class for an origin/destination pair.
// Identical endpoints yield zero distance and the class minimum.
func Estimate(origin, dest models.Coord, class models.VehicleClass) models.FareQuote {
	distKm := geo.HaversineKm(origin, dest)
	durationSec := distKm / AvgSpeedKmph * 3600
	r := Rates[class]
	amount := r.Base + r.PerKm*distKm + r.PerMin*durationSec/60
	if amount < r.Minimum {
		amount = r.Minimum
	}
	return models.FareQuote{
		DistanceKm:  round2(distKm),
		DurationSec: math.Round(durationSec),
		Fare:        round2(amount),
	}
}

// EstimateAll quotes every vehicle class at once, for the fare screen.
func EstimateAll(origin, dest models.Coord) map[models.VehicleClass]models.FareQuote {
	out := make(map[models.VehicleClass]models.FareQuote, len(Rates))
	for class := range Rates {
		out[class] = Estimate(origin, dest, class)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
