package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carris-monitor/busmon/internal/cache"
	"github.com/carris-monitor/busmon/internal/direction"
	"github.com/carris-monitor/busmon/internal/models"
	"github.com/carris-monitor/busmon/internal/tracker"
)

const (
	defaultScheduleLimit = 3
	maxScheduleLimit     = 20
)

type TransitHandler struct {
	buses       BusProvider
	directions  DirectionProvider
	snapshots   *cache.Cache[tracker.Snapshot]
	observer    CacheObserver
	loc         *time.Location
	loadTimeout time.Duration
	now         func() time.Time
}

// NewTransitHandler creates the handler for the bus, direction and schedule
// endpoints. snapshots and observer may be nil; loc is the timetable zone.
// loadTimeout bounds a cached load, which outlives the request that started it.
func NewTransitHandler(buses BusProvider, directions DirectionProvider, snapshots *cache.Cache[tracker.Snapshot], observer CacheObserver, loc *time.Location, loadTimeout time.Duration) *TransitHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransitHandler{
		buses:       buses,
		directions:  directions,
		snapshots:   snapshots,
		observer:    observer,
		loc:         loc,
		loadTimeout: loadTimeout,
		now:         time.Now,
	}
}

// direction resolves the direction query parameter. Without one the first
// configured direction is used.
func (h *TransitHandler) direction(w http.ResponseWriter, r *http.Request) (*direction.Config, bool) {
	id := r.URL.Query().Get("direction")
	if id == "" {
		if all := h.directions.All(); len(all) > 0 {
			return all[0], true
		}
	}

	dir, err := h.directions.Get(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, direction.ErrUnknownDirection) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{
			"error":   "Invalid direction",
			"message": "Use one of the ids listed by /api/directions",
		})
		return nil, false
	}
	return dir, true
}

// GetBuses returns the classified vehicles for a direction as a JSON array
func (h *TransitHandler) GetBuses(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.direction(w, r)
	if !ok {
		return
	}

	snap, hit := h.snapshot(r, dir)
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if snap.Degraded {
		w.Header().Set("X-Data-Degraded", "true")
	}
	w.Header().Set("Last-Modified", snap.UpdatedAt.UTC().Format(http.TimeFormat))

	vehicles := snap.Vehicles
	if vehicles == nil {
		vehicles = []models.ClassifiedVehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// snapshot serves from the response cache when enabled. Degraded snapshots
// are returned but not cached.
func (h *TransitHandler) snapshot(r *http.Request, dir *direction.Config) (tracker.Snapshot, bool) {
	if h.snapshots == nil || !h.snapshots.Enabled() {
		return h.buses.Buses(r.Context(), dir), false
	}

	// Concurrent requests share the load, so it must not end with the
	// request that happened to start it.
	snap, hit, _ := h.snapshots.GetOrLoad(dir.ID, func() (tracker.Snapshot, error) {
		ctx := context.WithoutCancel(r.Context())
		if h.loadTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.loadTimeout)
			defer cancel()
		}
		s := h.buses.Buses(ctx, dir)
		if s.Degraded {
			return s, errDegraded
		}
		return s, nil
	})
	if h.observer != nil {
		h.observer.ObserveCache(hit)
	}
	return snap, hit
}

var errDegraded = errors.New("degraded snapshot")

type directionView struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Target     models.POI `json:"target"`
	Secondary  models.POI `json:"secondary"`
	PatternIDs []string   `json:"pattern_ids"`
	RouteIDs   []string   `json:"route_ids"`
	LineIDs    []string   `json:"line_ids"`
	Source     string     `json:"source"`
}

// GetDirections lists the configured directions with their points of interest
func (h *TransitHandler) GetDirections(w http.ResponseWriter, r *http.Request) {
	all := h.directions.All()
	views := make([]directionView, 0, len(all))
	for _, d := range all {
		views = append(views, directionView{
			ID:         d.ID,
			Label:      d.Label,
			Target:     d.Target,
			Secondary:  d.Secondary,
			PatternIDs: d.PatternIDs,
			RouteIDs:   d.RouteIDs,
			LineIDs:    d.LineIDs,
			Source:     d.Source,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"directions": views,
		"count":      len(views),
	})
}

// GetSchedule returns the next scheduled departures of each pattern in a direction
func (h *TransitHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	dir, ok := h.direction(w, r)
	if !ok {
		return
	}

	limit := parseIntQueryParam(r, "limit", defaultScheduleLimit, 1, maxScheduleLimit)
	now := h.now().In(h.loc)
	patterns := dir.NextDepartures(now, limit)
	if patterns == nil {
		patterns = []direction.PatternDepartures{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"direction": dir.ID,
		"source":    dir.Source,
		"timezone":  h.loc.String(),
		"now":       now.Format("15:04"),
		"patterns":  patterns,
	})
}
