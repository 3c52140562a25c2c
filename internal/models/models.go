// Package models defines shared data types
package models

import (
	"encoding/json"
	"strconv"
)

// Coordinate is a validated latitude/longitude pair in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// POI is one of the fixed stops a direction is monitored against
type POI struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// StopDetail is a stop on a pattern's path
type StopDetail struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Sequence int     `json:"stop_sequence"`
}

// Located reports whether the stop carries a usable position. Upstream
// stops without coordinates decode to (0, 0).
func (s StopDetail) Located() bool {
	if s.Lat == 0 && s.Lon == 0 {
		return false
	}
	return s.Lat >= -90 && s.Lat <= 90 && s.Lon >= -180 && s.Lon <= 180
}

// PatternStops is the resolved path of one route pattern. Sequence maps stop
// ID to its ordinal on the path; Details carries the stop itself. Path keeps
// the upstream order and is used wherever iteration must be deterministic.
type PatternStops struct {
	PatternID string
	Sequence  map[string]int
	Details   map[string]StopDetail
	Path      []StopDetail
}

// NewPatternStops returns an empty, unresolved pattern
func NewPatternStops(patternID string) PatternStops {
	return PatternStops{
		PatternID: patternID,
		Sequence:  make(map[string]int),
		Details:   make(map[string]StopDetail),
	}
}

// Add records a stop on the path
func (p *PatternStops) Add(stop StopDetail) {
	if p.Sequence == nil {
		p.Sequence = make(map[string]int)
	}
	if p.Details == nil {
		p.Details = make(map[string]StopDetail)
	}
	p.Sequence[stop.ID] = stop.Sequence
	p.Details[stop.ID] = stop
	p.Path = append(p.Path, stop)
}

// Resolved reports whether any stop was loaded for the pattern
func (p PatternStops) Resolved() bool {
	return len(p.Sequence) > 0
}

// SequenceOf returns the sequence position of stopID on this pattern
func (p PatternStops) SequenceOf(stopID string) (int, bool) {
	if stopID == "" {
		return 0, false
	}
	seq, ok := p.Sequence[stopID]
	return seq, ok
}

// RawVehicle is a vehicle record as delivered by the upstream feed. The
// numeric fields keep whatever JSON type the feed used; they are untrusted
// until run through the location validators. Fields not known here are kept
// in Extra and passed through to clients.
type RawVehicle struct {
	ID        string
	PatternID string
	RouteID   string
	LineID    string
	StopID    string
	Lat       any
	Lon       any
	Speed     any
	Bearing   any
	Extra     map[string]any
}

var rawVehicleKeys = []string{"id", "pattern_id", "route_id", "line_id", "stop_id", "lat", "lon", "speed", "bearing"}

// UnmarshalJSON accepts any object shape; identifiers may arrive as strings or numbers
func (v *RawVehicle) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	v.ID = StringID(fields["id"])
	v.PatternID = StringID(fields["pattern_id"])
	v.RouteID = StringID(fields["route_id"])
	v.LineID = StringID(fields["line_id"])
	v.StopID = StringID(fields["stop_id"])
	v.Lat = fields["lat"]
	v.Lon = fields["lon"]
	v.Speed = fields["speed"]
	v.Bearing = fields["bearing"]

	for _, k := range rawVehicleKeys {
		delete(fields, k)
	}
	v.Extra = fields
	return nil
}

// NeighborStop is the stop immediately before or after a vehicle's current stop
// Lat and Lon are omitted when the pattern has no position for the stop.
type NeighborStop struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// ClassifiedVehicle is a RawVehicle that passed the admission filter, with
// the derived position metrics attached
type ClassifiedVehicle struct {
	Raw             RawVehicle
	Position        Coordinate
	Speed           *float64
	Status          string
	Color           string
	DistanceKm      float64
	ETAMinutes      *float64
	CurrentSequence int
	TargetSequence  int
	PreviousStop    *NeighborStop
	NextStop        *NeighborStop
	BearingToTarget *float64
	HeadingTowards  *bool
}

// MarshalJSON flattens the upstream fields and the derived ones into one object
func (c ClassifiedVehicle) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Raw.Extra)+16)
	for k, v := range c.Raw.Extra {
		out[k] = v
	}

	out["id"] = c.Raw.ID
	out["pattern_id"] = c.Raw.PatternID
	out["route_id"] = c.Raw.RouteID
	out["line_id"] = c.Raw.LineID
	out["stop_id"] = c.Raw.StopID
	out["lat"] = c.Position.Lat
	out["lon"] = c.Position.Lon
	out["speed"] = c.Speed
	out["bearing"] = c.Raw.Bearing
	out["status"] = c.Status
	out["color"] = c.Color
	out["distance_to_target"] = c.DistanceKm
	out["eta_minutes"] = c.ETAMinutes
	out["current_stop_sequence"] = c.CurrentSequence
	out["target_stop_sequence"] = c.TargetSequence

	if c.PreviousStop != nil {
		out["previous_stop"] = c.PreviousStop
	}
	if c.NextStop != nil {
		out["next_stop"] = c.NextStop
	}
	if c.BearingToTarget != nil {
		out["bearing_to_target"] = *c.BearingToTarget
	}
	if c.HeadingTowards != nil {
		out["heading_towards_target"] = *c.HeadingTowards
	}

	return json.Marshal(out)
}

// StringID handles identifiers that the feed may send as string or number
func StringID(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	}
	return ""
}
