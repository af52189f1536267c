// Package geo computes geodesic distances and filters places by proximity.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/tidwall/geodesic"
)

// ErrComputation is returned when a distance cannot be computed for a pair of points.
var ErrComputation = errors.New("distance computation failed")

// Distance returns the geodesic distance in kilometres between two points on
// the WGS-84 ellipsoid, solved with Karney's algorithm. It converges for every
// pair of valid coordinates, antipodal points included.
//
// NaN or infinite components, and latitudes outside [-90, 90], yield an error
// wrapping ErrComputation.
func Distance(from, to models.Coordinates) (float64, error) {
	for _, v := range []float64{from.Latitude, from.Longitude, to.Latitude, to.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: non-finite coordinate %v", ErrComputation, v)
		}
	}

	var meters float64
	geodesic.WGS84.Inverse(from.Latitude, from.Longitude, to.Latitude, to.Longitude, &meters, nil, nil)
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return 0, fmt.Errorf("%w: no geodesic between (%v, %v) and (%v, %v)",
			ErrComputation, from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	}

	return meters / 1000, nil
}

// RoundKm rounds a distance to two decimals, halves away from zero.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
