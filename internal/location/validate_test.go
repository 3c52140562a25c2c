package location

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValidateCoordinateAccepts(t *testing.T) {
	tests := []struct {
		raw  any
		axis Axis
		want float64
	}{
		{38.7223, Latitude, 38.7223},
		{-89.5, Latitude, -89.5},
		{90.0, Latitude, 90},
		{-90.0, Latitude, -90},
		{-9.1393, Longitude, -9.1393},
		{179.5, Longitude, 179.5},
		{-180.0, Longitude, -180},
		{180.0, Longitude, 180},
		{"38.5", Latitude, 38.5},
		{json.Number("-9.25"), Longitude, -9.25},
		{12, Latitude, 12},
	}

	for _, tc := range tests {
		got, ok := ValidateCoordinate(tc.raw, tc.axis)
		if !ok {
			t.Errorf("ValidateCoordinate(%v, %s) rejected", tc.raw, tc.axis)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateCoordinate(%v, %s) = %v, want %v", tc.raw, tc.axis, got, tc.want)
		}
	}
}

func TestValidateCoordinateRejects(t *testing.T) {
	tests := []struct {
		raw  any
		axis Axis
	}{
		{90.0001, Latitude},
		{-90.0001, Latitude},
		{91.0, Latitude},
		{180.0001, Longitude},
		{-181.0, Longitude},
		{"invalid", Latitude},
		{nil, Longitude},
		{math.NaN(), Latitude},
		{math.Inf(1), Longitude},
		{true, Latitude},
	}

	for _, tc := range tests {
		if v, ok := ValidateCoordinate(tc.raw, tc.axis); ok {
			t.Errorf("ValidateCoordinate(%v, %s) = %v, want rejection", tc.raw, tc.axis, v)
		}
	}
}

func TestValidateCoordinateRoundTripsInRange(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		if got, ok := ValidateCoordinate(lat, Latitude); !ok || got != lat {
			t.Fatalf("lat %v: got %v ok=%v", lat, got, ok)
		}
	}
	for lon := -180.0; lon <= 180; lon += 15 {
		if got, ok := ValidateCoordinate(lon, Longitude); !ok || got != lon {
			t.Fatalf("lon %v: got %v ok=%v", lon, got, ok)
		}
	}
}

func TestValidateSpeed(t *testing.T) {
	valid := []struct {
		raw  any
		want float64
	}{
		{50.0, 50},
		{0.0, 0},
		{150.5, 150.5},
		{"75", 75},
		{200.0, 200},
	}
	for _, tc := range valid {
		got, ok := ValidateSpeed(tc.raw)
		if !ok || got != tc.want {
			t.Errorf("ValidateSpeed(%v) = %v, %v; want %v", tc.raw, got, ok, tc.want)
		}
	}

	invalid := []any{-10.0, 250.0, 200.01, "invalid", nil}
	for _, raw := range invalid {
		if v, ok := ValidateSpeed(raw); ok {
			t.Errorf("ValidateSpeed(%v) = %v, want rejection", raw, v)
		}
	}
}

func TestValidateBearing(t *testing.T) {
	if v, ok := ValidateBearing(360.0); !ok || v != 0 {
		t.Errorf("ValidateBearing(360) = %v, %v", v, ok)
	}
	if v, ok := ValidateBearing(271.5); !ok || v != 271.5 {
		t.Errorf("ValidateBearing(271.5) = %v, %v", v, ok)
	}
	for _, raw := range []any{-1.0, 361.0, "north", nil} {
		if _, ok := ValidateBearing(raw); ok {
			t.Errorf("ValidateBearing(%v) accepted", raw)
		}
	}
}
