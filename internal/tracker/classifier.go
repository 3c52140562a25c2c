// Package tracker decides which vehicles in the live feed matter for a
// direction and where each one is relative to the monitored stops.
package tracker

import (
	"log/slog"

	"github.com/carris-monitor/busmon/internal/direction"
	"github.com/carris-monitor/busmon/internal/location"
	"github.com/carris-monitor/busmon/internal/models"
)

// DropReason explains why a vehicle was left out of the result
type DropReason string

const (
	DropPattern          DropReason = "pattern_not_accepted"
	DropUnresolved       DropReason = "pattern_unresolved"
	DropRoute            DropReason = "route_not_accepted"
	DropLine             DropReason = "line_not_accepted"
	DropUnknownStop      DropReason = "stop_not_on_pattern"
	DropTargetNotOnRoute DropReason = "target_not_on_pattern"
	DropNoPhase          DropReason = "no_phase"
	DropInvalidPosition  DropReason = "invalid_position"
)

// Result is the output of one classification pass
type Result struct {
	Vehicles []models.ClassifiedVehicle
	Dropped  map[DropReason]int
}

// Classifier classifies vehicles for a single direction. It does no I/O and
// holds no mutable state, so one value may be shared between goroutines.
type Classifier struct {
	dir *direction.Config
}

// NewClassifier creates a classifier bound to dir
func NewClassifier(dir *direction.Config) *Classifier {
	return &Classifier{dir: dir}
}

// Classify filters vehicles against the direction and attaches the derived
// metrics. patterns maps pattern ID to its resolved stops; a missing or
// empty entry means no vehicle on that pattern can be classified. Feed order
// is preserved.
func (c *Classifier) Classify(vehicles []models.RawVehicle, patterns map[string]models.PatternStops) Result {
	res := Result{
		Vehicles: []models.ClassifiedVehicle{},
		Dropped:  make(map[DropReason]int),
	}

	for _, v := range vehicles {
		cv, reason := c.classifyOne(v, patterns)
		if reason != "" {
			res.Dropped[reason]++
			continue
		}
		res.Vehicles = append(res.Vehicles, cv)
	}
	return res
}

func (c *Classifier) classifyOne(v models.RawVehicle, patterns map[string]models.PatternStops) (models.ClassifiedVehicle, DropReason) {
	if !c.dir.AcceptsPattern(v.PatternID) {
		return models.ClassifiedVehicle{}, DropPattern
	}
	stops, ok := patterns[v.PatternID]
	if !ok || !stops.Resolved() {
		return models.ClassifiedVehicle{}, DropUnresolved
	}
	if !c.dir.AcceptsRoute(v.RouteID) {
		return models.ClassifiedVehicle{}, DropRoute
	}
	if !c.dir.AcceptsLine(v.LineID) {
		return models.ClassifiedVehicle{}, DropLine
	}

	current, ok := stops.SequenceOf(v.StopID)
	if !ok {
		return models.ClassifiedVehicle{}, DropUnknownStop
	}
	target, ok := stops.SequenceOf(c.dir.Target.ID)
	if !ok {
		return models.ClassifiedVehicle{}, DropTargetNotOnRoute
	}
	secondary, hasSecondary := stops.SequenceOf(c.dir.Secondary.ID)

	phase := classifyPhase(current, target, secondary, hasSecondary)
	if phase == PhaseDropped {
		return models.ClassifiedVehicle{}, DropNoPhase
	}

	lat, latOK := location.ValidateCoordinate(v.Lat, location.Latitude)
	lon, lonOK := location.ValidateCoordinate(v.Lon, location.Longitude)
	if !latOK || !lonOK {
		return models.ClassifiedVehicle{}, DropInvalidPosition
	}

	cv := models.ClassifiedVehicle{
		Raw:             v,
		Position:        models.Coordinate{Lat: lat, Lon: lon},
		Status:          phase.String(),
		Color:           phase.Color(),
		CurrentSequence: current,
		TargetSequence:  target,
	}

	distance := location.Haversine(lat, lon, c.dir.Target.Lat, c.dir.Target.Lon)
	cv.DistanceKm = location.Round(distance, 2)

	speed, speedOK := location.ValidateSpeed(v.Speed)
	if speedOK {
		cv.Speed = &speed
	}
	cv.ETAMinutes = estimateArrival(phase, current == target, distance, speed, speedOK)

	if heading, ok := location.ValidateBearing(v.Bearing); ok {
		toTarget := location.Bearing(lat, lon, c.dir.Target.Lat, c.dir.Target.Lon)
		towards := location.IsHeadingTowards(heading, toTarget, location.DefaultHeadingTolerance)
		rounded := location.Round(toTarget, 1)
		cv.BearingToTarget = &rounded
		cv.HeadingTowards = &towards
	}

	cv.PreviousStop, cv.NextStop = c.neighbors(stops, current)
	return cv, ""
}

// estimateArrival is the only phase-specific metric. A vehicle at the target
// has arrived; one still approaching gets distance over speed; any other
// phase has no single destination to estimate against.
func estimateArrival(phase Phase, atTarget bool, distanceKm, speedKmh float64, speedOK bool) *float64 {
	if phase != PhaseApproachingTarget {
		return nil
	}
	if atTarget {
		zero := 0.0
		return &zero
	}
	if !speedOK || speedKmh <= 0 {
		return nil
	}
	eta := location.Round(distanceKm/speedKmh*60, 1)
	return &eta
}

// neighbors finds the stops one position before and after current on the
// path, skipping the direction's own POIs. With duplicate sequence numbers
// the stop later in the path wins.
func (c *Classifier) neighbors(stops models.PatternStops, current int) (prev, next *models.NeighborStop) {
	for _, stop := range stops.Path {
		var slot **models.NeighborStop
		switch stop.Sequence {
		case current - 1:
			slot = &prev
		case current + 1:
			slot = &next
		default:
			continue
		}
		if c.dir.IsPOI(stop.ID) {
			continue
		}
		if *slot != nil {
			slog.Debug("duplicate stop sequence on pattern",
				"pattern_id", stops.PatternID,
				"sequence", stop.Sequence,
				"stops", []string{(*slot).ID, stop.ID},
			)
		}
		n := &models.NeighborStop{ID: stop.ID, Name: stop.Name}
		if stop.Located() {
			n.Lat, n.Lon = &stop.Lat, &stop.Lon
		}
		*slot = n
	}
	return prev, next
}
