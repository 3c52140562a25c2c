package transit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carris-monitor/busmon/internal/models"
	"github.com/carris-monitor/busmon/internal/telemetry"
)

const (
	DefaultBaseURL = "https://api.carrismetropolitana.pt"

	// upstream documents are a few hundred KB at most
	maxBodyBytes = 16 << 20
	userAgent    = "busmon/1.0"
)

// ErrUpstreamStatus is wrapped by errors for non-200 upstream responses
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// Observer receives one call per upstream request. outcome is "ok" or an
// error type.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, elapsed time.Duration)
}

// VehicleSource provides the current snapshot of the vehicle feed
type VehicleSource interface {
	FetchVehicles(ctx context.Context) ([]models.RawVehicle, error)
}

// CarrisClient talks to the Carris Metropolitana public API
type CarrisClient struct {
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	tracer   trace.Tracer
	observer Observer
}

// NewCarrisClient creates a client for baseURL. Every request is bounded by
// timeout. observer may be nil.
func NewCarrisClient(baseURL string, timeout time.Duration, observer Observer) *CarrisClient {
	return &CarrisClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   newHTTPClient(timeout),
		timeout:  timeout,
		tracer:   otel.Tracer("busmon/transit"),
		observer: observer,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// FetchVehicles returns every vehicle currently reported by the feed
func (c *CarrisClient) FetchVehicles(ctx context.Context) ([]models.RawVehicle, error) {
	ctx, span := c.tracer.Start(ctx, "carris.fetch_vehicles")
	defer span.End()

	body, err := fetch(ctx, c.client, c.timeout, c.baseURL+"/vehicles", "vehicles", c.observer)
	if err != nil {
		return nil, err
	}

	var vehicles []models.RawVehicle
	if err := json.Unmarshal(body, &vehicles); err != nil {
		err = fmt.Errorf("parsing vehicles: %w", err)
		telemetry.RecordError(span, err, telemetry.ErrorTypeParse, false)
		return nil, err
	}

	span.SetAttributes(attribute.Int("vehicles.count", len(vehicles)))
	telemetry.SetSpanOk(span)
	return vehicles, nil
}

// patternResponse is the subset of GET /patterns/{id} we use
type patternResponse struct {
	Path []struct {
		Stop *struct {
			ID   any    `json:"id"`
			Name string `json:"name"`
			Lat  any    `json:"lat"`
			Lon  any    `json:"lon"`
		} `json:"stop"`
		StopSequence any `json:"stop_sequence"`
	} `json:"path"`
}

// FetchPattern loads the ordered stop path of patternID. Path entries
// without a stop identifier are skipped.
func (c *CarrisClient) FetchPattern(ctx context.Context, patternID string) (models.PatternStops, error) {
	ctx, span := c.tracer.Start(ctx, "carris.fetch_pattern",
		trace.WithAttributes(attribute.String("pattern_id", patternID)),
	)
	defer span.End()

	stops := models.NewPatternStops(patternID)

	body, err := fetch(ctx, c.client, c.timeout, c.baseURL+"/patterns/"+url.PathEscape(patternID), "patterns", c.observer)
	if err != nil {
		return stops, err
	}

	var resp patternResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		err = fmt.Errorf("parsing pattern %s: %w", patternID, err)
		telemetry.RecordError(span, err, telemetry.ErrorTypeParse, false)
		return stops, err
	}

	for _, item := range resp.Path {
		if item.Stop == nil {
			continue
		}
		id := models.StringID(item.Stop.ID)
		if id == "" {
			continue
		}
		seq, _ := toInt(item.StopSequence)
		detail := models.StopDetail{ID: id, Name: item.Stop.Name, Sequence: seq}
		lat, latOK := toFloat(item.Stop.Lat)
		lon, lonOK := toFloat(item.Stop.Lon)
		if latOK && lonOK {
			detail.Lat, detail.Lon = lat, lon
		}
		stops.Add(detail)
	}

	span.SetAttributes(attribute.Int("pattern.stops", len(stops.Path)))
	telemetry.SetSpanOk(span)
	return stops, nil
}

// fetch performs a bounded GET and returns the body of a 200 response
func fetch(ctx context.Context, client *http.Client, timeout time.Duration, rawURL, endpoint string, observer Observer) ([]byte, error) {
	span := trace.SpanFromContext(ctx)
	start := time.Now()
	outcome := "ok"
	defer func() {
		if observer != nil {
			observer.ObserveUpstream(endpoint, outcome, time.Since(start))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		outcome = telemetry.ErrorTypeNetwork
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		outcome = telemetry.ErrorTypeNetwork
		telemetry.RecordError(span, err, telemetry.ErrorTypeNetwork, true)
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		outcome = telemetry.ErrorTypeHTTP
		err := fmt.Errorf("%s: %w: %d", endpoint, ErrUpstreamStatus, resp.StatusCode)
		telemetry.RecordError(span, err, telemetry.ErrorTypeHTTP, resp.StatusCode >= 500)
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		outcome = telemetry.ErrorTypeNetwork
		telemetry.RecordError(span, err, telemetry.ErrorTypeNetwork, true)
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	return body, nil
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
