package location

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Axis selects the range check applied by ValidateCoordinate.
type Axis string

const (
	Latitude  Axis = "lat"
	Longitude Axis = "lon"
)

// MaxSpeedKmh bounds speeds accepted from the vehicle feed.
const MaxSpeedKmh = 200.0

// ValidateCoordinate coerces raw into a float and checks it against the
// range for axis. The bool is false for anything non-numeric, non-finite or
// out of range; the value is never clamped.
func ValidateCoordinate(raw any, axis Axis) (float64, bool) {
	v, ok := toFloat(raw)
	if !ok {
		slog.Warn("invalid coordinate format", "axis", string(axis), "value", raw)
		return 0, false
	}

	switch axis {
	case Latitude:
		if v < -90 || v > 90 {
			slog.Warn("invalid latitude", "value", v)
			return 0, false
		}
	case Longitude:
		if v < -180 || v > 180 {
			slog.Warn("invalid longitude", "value", v)
			return 0, false
		}
	}
	return v, true
}

// ValidateSpeed coerces raw into a speed in km/h. Negative values and values
// above MaxSpeedKmh are treated as corrupt feed data.
func ValidateSpeed(raw any) (float64, bool) {
	v, ok := toFloat(raw)
	if !ok || v < 0 || v > MaxSpeedKmh {
		return 0, false
	}
	return v, true
}

// ValidateBearing coerces raw into a compass bearing in [0, 360).
// 360 is folded to 0.
func ValidateBearing(raw any) (float64, bool) {
	v, ok := toFloat(raw)
	if !ok || v < 0 || v > 360 {
		return 0, false
	}
	if v == 360 {
		v = 0
	}
	return v, true
}

func toFloat(raw any) (float64, bool) {
	var v float64
	switch val := raw.(type) {
	case float64:
		v = val
	case float32:
		v = float64(val)
	case int:
		v = float64(val)
	case int64:
		v = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
