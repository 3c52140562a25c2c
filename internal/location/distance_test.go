package location

import (
	"math"
	"testing"
)

func TestHaversineKnownDistance(t *testing.T) {
	d := Haversine(38.810309, -9.234355, 38.813377, -9.251942)
	if math.Abs(d-1.66) > 0.05 {
		t.Errorf("Haversine = %.4f km, want ~1.66", d)
	}
}

func TestHaversineSamePoint(t *testing.T) {
	points := [][2]float64{
		{38.7223, -9.1393},
		{0, 0},
		{-90, 180},
		{51.5, -0.12},
	}
	for _, p := range points {
		if d := Haversine(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Haversine(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := [2]float64{38.7223, -9.1393}
	b := [2]float64{38.7123, -9.1293}

	ab := Haversine(a[0], a[1], b[0], b[1])
	ba := Haversine(b[0], b[1], a[0], a[1])
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("Haversine not symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 || ab >= 2 {
		t.Errorf("Haversine = %v, want between 0 and 2 km", ab)
	}
}

func TestBearingRange(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"north", 0, 0, 1, 0, 0},
		{"east", 0, 0, 0, 1, 90},
		{"south", 1, 0, 0, 0, 180},
		{"west", 0, 1, 0, 0, 270},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Bearing(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("Bearing = %v, want %v", got, tc.want)
			}
		})
	}

	for lat := -80.0; lat <= 80; lat += 20 {
		for lon := -170.0; lon <= 170; lon += 34 {
			b := Bearing(38.81, -9.23, lat, lon)
			if b < 0 || b >= 360 {
				t.Fatalf("Bearing to (%v,%v) = %v, outside [0,360)", lat, lon, b)
			}
		}
	}
}

func TestIsHeadingTowards(t *testing.T) {
	tests := []struct {
		name            string
		vehicle, target float64
		want            bool
	}{
		{"wraparound", 2, 358, true},
		{"opposite", 0, 180, false},
		{"exact", 90, 90, true},
		{"edge of tolerance", 10, 55, true},
		{"just outside", 10, 55.5, false},
		{"wraparound other side", 359, 1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsHeadingTowards(tc.vehicle, tc.target, DefaultHeadingTolerance); got != tc.want {
				t.Errorf("IsHeadingTowards(%v, %v) = %v, want %v", tc.vehicle, tc.target, got, tc.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.23456, 2); got != 1.23 {
		t.Errorf("Round(1.23456, 2) = %v", got)
	}
	if got := Round(7.25, 1); got != 7.3 {
		t.Errorf("Round(7.25, 1) = %v", got)
	}
}
