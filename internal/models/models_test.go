package models

import (
	"encoding/json"
	"testing"
)

func TestRawVehicleUnmarshal(t *testing.T) {
	data := []byte(`{"id": 1234, "pattern_id": "1636_1_1", "route_id": "1636_1", "line_id": 1636,
		"stop_id": "171577", "lat": "38.81", "lon": -9.25, "speed": null, "timestamp": 1700000000}`)

	var v RawVehicle
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if v.ID != "1234" || v.LineID != "1636" || v.StopID != "171577" {
		t.Errorf("identifiers = %+v", v)
	}
	if v.Lat != "38.81" {
		t.Errorf("Lat = %#v, want raw string kept for validation", v.Lat)
	}
	if v.Speed != nil {
		t.Errorf("Speed = %#v, want nil", v.Speed)
	}
	if _, ok := v.Extra["timestamp"]; !ok {
		t.Error("unknown fields should be kept in Extra")
	}
	if _, ok := v.Extra["id"]; ok {
		t.Error("known fields should not be kept in Extra")
	}
}

func TestRawVehicleUnmarshalRejectsNonObject(t *testing.T) {
	var v RawVehicle
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Error("expected error for array input")
	}
}

func TestStringID(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"110004", "110004"},
		{float64(110004), "110004"},
		{json.Number("42"), "42"},
		{nil, ""},
		{true, ""},
	}
	for _, tt := range tests {
		if got := StringID(tt.in); got != tt.want {
			t.Errorf("StringID(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPatternStops(t *testing.T) {
	p := NewPatternStops("1637_0_1")
	if p.Resolved() {
		t.Error("empty pattern should not be resolved")
	}

	p.Add(StopDetail{ID: "a", Sequence: 1})
	p.Add(StopDetail{ID: "b", Sequence: 4})

	if !p.Resolved() {
		t.Error("pattern with stops should be resolved")
	}
	if seq, ok := p.SequenceOf("b"); !ok || seq != 4 {
		t.Errorf("SequenceOf(b) = %d, %v", seq, ok)
	}
	if _, ok := p.SequenceOf(""); ok {
		t.Error("empty stop id should not resolve")
	}

	var zero PatternStops
	zero.Add(StopDetail{ID: "x", Sequence: 1})
	if !zero.Resolved() {
		t.Error("Add should initialise maps on a zero value")
	}
}

func TestClassifiedVehicleJSONOverridesUpstream(t *testing.T) {
	eta := 1.5
	cv := ClassifiedVehicle{
		Raw: RawVehicle{
			ID:    "v1",
			Lat:   "38.8",
			Extra: map[string]any{"status": "upstream", "trip_id": "t"},
		},
		Position:   Coordinate{Lat: 38.8, Lon: -9.2},
		Status:     "approaching-target",
		DistanceKm: 1.23,
		ETAMinutes: &eta,
	}

	data, err := json.Marshal(cv)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out["status"] != "approaching-target" {
		t.Errorf("status = %v, derived value should win", out["status"])
	}
	if out["lat"] != 38.8 {
		t.Errorf("lat = %#v, want validated number", out["lat"])
	}
	if out["trip_id"] != "t" || out["eta_minutes"] != 1.5 {
		t.Errorf("out = %v", out)
	}
	if _, ok := out["previous_stop"]; ok {
		t.Error("previous_stop should be omitted when absent")
	}
}

func TestStopDetailLocated(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"lisbon", 38.810309, -9.234355, true},
		{"missing", 0, 0, false},
		{"latitude out of range", 91, -9.2, false},
		{"longitude out of range", 38.8, 181, false},
		{"on the equator", 0, -9.2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := StopDetail{ID: "1", Lat: tt.lat, Lon: tt.lon}
			if got := s.Located(); got != tt.want {
				t.Errorf("Located() = %v, want %v", got, tt.want)
			}
		})
	}
}
