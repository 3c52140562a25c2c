package transit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/proto"

	"github.com/carris-monitor/busmon/internal/models"
	"github.com/carris-monitor/busmon/internal/telemetry"
)

const DefaultGTFSRealtimeURL = "https://api.carrismetropolitana.pt/gtfs-rt"

var errMalformedFeed = errors.New("malformed GTFS-RT feed")

// metersPerSecondToKmh converts GTFS-RT speeds to the JSON feed's unit
const metersPerSecondToKmh = 3.6

// GTFSRealtimeSource reads vehicle positions from a GTFS-Realtime protobuf
// feed and maps them onto the same RawVehicle shape as the JSON feed.
//
// GTFS-RT carries no pattern or line identifiers, so they are derived from
// the operator's ID conventions: trip IDs start with the pattern ID
// ("1637_0_1_..."), route IDs start with the line ID ("1637_0").
type GTFSRealtimeSource struct {
	feedURL  string
	client   *http.Client
	timeout  time.Duration
	tracer   trace.Tracer
	observer Observer
}

// NewGTFSRealtimeSource creates a source for the feed at feedURL. observer may be nil.
func NewGTFSRealtimeSource(feedURL string, timeout time.Duration, observer Observer) *GTFSRealtimeSource {
	return &GTFSRealtimeSource{
		feedURL:  feedURL,
		client:   newHTTPClient(timeout),
		timeout:  timeout,
		tracer:   otel.Tracer("busmon/transit"),
		observer: observer,
	}
}

// FetchVehicles downloads and decodes the vehicle positions feed
func (s *GTFSRealtimeSource) FetchVehicles(ctx context.Context) ([]models.RawVehicle, error) {
	ctx, span := s.tracer.Start(ctx, "gtfsrt.fetch_vehicles")
	defer span.End()

	body, err := fetch(ctx, s.client, s.timeout, s.feedURL, "gtfs_rt_vehicles", s.observer)
	if err != nil {
		return nil, err
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		err = fmt.Errorf("%w: %w", errMalformedFeed, err)
		telemetry.RecordError(span, err, telemetry.ErrorTypeParse, false)
		return nil, err
	}

	vehicles := parseVehiclePositions(feed)
	span.SetAttributes(attribute.Int("vehicles.count", len(vehicles)))
	telemetry.SetSpanOk(span)
	return vehicles, nil
}

func parseVehiclePositions(feed *gtfs.FeedMessage) []models.RawVehicle {
	var vehicles []models.RawVehicle

	for _, entity := range feed.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil {
			continue
		}

		id := vp.GetVehicle().GetId()
		if id == "" {
			id = entity.GetId()
		}

		trip := vp.GetTrip()
		v := models.RawVehicle{
			ID:        id,
			PatternID: patternFromTrip(trip.GetTripId()),
			RouteID:   trip.GetRouteId(),
			LineID:    lineFromRoute(trip.GetRouteId()),
			StopID:    vp.GetStopId(),
			Extra: map[string]any{
				"trip_id":        trip.GetTripId(),
				"current_status": vp.GetCurrentStatus().String(),
				"timestamp":      vp.GetTimestamp(),
			},
		}

		// Unset optional fields stay nil so the validators reject them.
		if pos := vp.GetPosition(); pos != nil {
			v.Lat = float64(pos.GetLatitude())
			v.Lon = float64(pos.GetLongitude())
			if pos.Speed != nil {
				v.Speed = float64(pos.GetSpeed()) * metersPerSecondToKmh
			}
			if pos.Bearing != nil {
				v.Bearing = float64(pos.GetBearing())
			}
		}

		vehicles = append(vehicles, v)
	}

	return vehicles
}

// patternFromTrip keeps the first three underscore-separated parts of a trip ID
func patternFromTrip(tripID string) string {
	tripID, _, _ = strings.Cut(tripID, "|")
	parts := strings.SplitN(tripID, "_", 4)
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[:3], "_")
}

// lineFromRoute returns the part of a route ID before the first underscore
func lineFromRoute(routeID string) string {
	line, _, _ := strings.Cut(routeID, "_")
	return line
}
