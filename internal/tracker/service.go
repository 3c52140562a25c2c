package tracker

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carris-monitor/busmon/internal/direction"
	"github.com/carris-monitor/busmon/internal/models"
	"github.com/carris-monitor/busmon/internal/telemetry"
	"github.com/carris-monitor/busmon/internal/transit"
)

// Observer receives the outcome of each request cycle
type Observer interface {
	ObservePattern(direction string, resolved bool)
	ObserveClassification(direction string, statuses map[string]int, dropped map[string]int, elapsed time.Duration)
}

// Snapshot is the classified view of the feed for one direction at one moment
type Snapshot struct {
	Direction string                     `json:"direction"`
	Vehicles  []models.ClassifiedVehicle `json:"vehicles"`
	Dropped   map[DropReason]int         `json:"-"`
	Degraded  bool                       `json:"degraded"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Service runs one request cycle: resolve the direction's patterns, fetch
// the vehicle feed, classify.
type Service struct {
	vehicles transit.VehicleSource
	resolver *transit.PatternResolver
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a service. observer may be nil.
func NewService(vehicles transit.VehicleSource, resolver *transit.PatternResolver, observer Observer) *Service {
	return &Service{
		vehicles: vehicles,
		resolver: resolver,
		observer: observer,
		tracer:   otel.Tracer("busmon/tracker"),
		now:      time.Now,
	}
}

// Buses returns the classified vehicles for dir. It never fails: an
// unresolved pattern only drops its own vehicles, and a failed vehicle
// fetch yields an empty, degraded snapshot.
func (s *Service) Buses(ctx context.Context, dir *direction.Config) Snapshot {
	ctx, span := s.tracer.Start(ctx, "tracker.buses",
		trace.WithAttributes(attribute.String("direction", dir.ID)),
	)
	defer span.End()

	snap := Snapshot{
		Direction: dir.ID,
		Vehicles:  []models.ClassifiedVehicle{},
		UpdatedAt: s.now(),
	}

	patterns := s.resolver.ResolveAll(ctx, dir.PatternIDs)
	resolved := 0
	for _, id := range dir.PatternIDs {
		ok := patterns[id].Resolved()
		if ok {
			resolved++
		}
		if s.observer != nil {
			s.observer.ObservePattern(dir.ID, ok)
		}
	}
	span.SetAttributes(attribute.Int("patterns.resolved", resolved))
	if resolved < len(dir.PatternIDs) {
		snap.Degraded = true
	}

	raw, err := s.vehicles.FetchVehicles(ctx)
	if err != nil {
		slog.Error("Failed to fetch vehicles", "direction", dir.ID, "error_type", transit.ErrorType(err))
		slog.Debug("Vehicle fetch error details", "direction", dir.ID, "error", err)
		errType, transient := spanErrorType(err)
		telemetry.RecordError(span, err, errType, transient)
		snap.Degraded = true
		return snap
	}

	start := time.Now()
	res := NewClassifier(dir).Classify(raw, patterns)
	elapsed := time.Since(start)

	snap.Vehicles = res.Vehicles
	snap.Dropped = res.Dropped

	if s.observer != nil {
		s.observer.ObserveClassification(dir.ID, countStatuses(res.Vehicles), dropCounts(res.Dropped), elapsed)
	}

	span.SetAttributes(
		attribute.Int("vehicles.feed", len(raw)),
		attribute.Int("vehicles.classified", len(res.Vehicles)),
	)
	slog.Debug("Classified vehicles",
		"direction", dir.ID,
		"feed", len(raw),
		"classified", len(res.Vehicles),
		"patterns_resolved", resolved,
	)
	telemetry.SetSpanOk(span)
	return snap
}

// spanErrorType maps a vehicle fetch failure onto the span error types
func spanErrorType(err error) (string, bool) {
	switch transit.ErrorType(err) {
	case "status":
		return telemetry.ErrorTypeHTTP, true
	case "parse":
		return telemetry.ErrorTypeParse, false
	}
	return telemetry.ErrorTypeNetwork, true
}

func countStatuses(vehicles []models.ClassifiedVehicle) map[string]int {
	out := make(map[string]int, 3)
	for _, v := range vehicles {
		out[v.Status]++
	}
	return out
}

func dropCounts(dropped map[DropReason]int) map[string]int {
	out := make(map[string]int, len(dropped))
	for reason, n := range dropped {
		out[string(reason)] = n
	}
	return out
}
