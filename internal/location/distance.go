// Package location holds the geo math and input validation used to place
// vehicles relative to the monitored stops.
package location

import "math"

const earthRadiusKm = 6371

// DefaultHeadingTolerance is the angular slack, in degrees, accepted by
// IsHeadingTowards when callers have no better value.
const DefaultHeadingTolerance = 45.0

// Haversine calculates the great-circle distance in kilometers between two lat/lon points
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Bearing returns the initial bearing from point 1 to point 2 in degrees, in [0, 360)
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) -
		math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	degrees := math.Atan2(y, x) * 180 / math.Pi
	b := math.Mod(degrees+360, 360)
	if b >= 360 {
		// Mod can round a tiny negative angle up to exactly 360.
		b = 0
	}
	return b
}

// IsHeadingTowards reports whether a vehicle travelling on vehicleBearing is
// pointed at something lying on targetBearing, within tolerance degrees.
// 359° and 1° are 2° apart.
func IsHeadingTowards(vehicleBearing, targetBearing, tolerance float64) bool {
	diff := math.Abs(vehicleBearing - targetBearing)
	return math.Min(diff, 360-diff) <= tolerance
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
