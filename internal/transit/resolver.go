package transit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/carris-monitor/busmon/internal/models"
)

// maxConcurrentPatterns bounds the pattern fetches of one request cycle
const maxConcurrentPatterns = 4

// PatternFetcher loads the stop path of a route pattern
type PatternFetcher interface {
	FetchPattern(ctx context.Context, patternID string) (models.PatternStops, error)
}

// PatternResolver turns pattern IDs into stop sequence maps. It caches
// nothing; every call goes upstream.
type PatternResolver struct {
	fetcher PatternFetcher
}

// NewPatternResolver creates a resolver backed by fetcher
func NewPatternResolver(fetcher PatternFetcher) *PatternResolver {
	return &PatternResolver{fetcher: fetcher}
}

// Resolve fetches one pattern. Any failure is logged and yields an empty,
// unresolved pattern rather than an error.
func (r *PatternResolver) Resolve(ctx context.Context, patternID string) models.PatternStops {
	stops, err := r.fetcher.FetchPattern(ctx, patternID)
	if err != nil {
		slog.Error("Failed to fetch pattern stops", "pattern_id", patternID, "error_type", ErrorType(err))
		slog.Debug("Pattern fetch error details", "pattern_id", patternID, "error", err)
		return models.NewPatternStops(patternID)
	}
	return stops
}

// ResolveAll fetches the given patterns concurrently. The result has an
// entry for every ID; failed ones are empty.
func (r *PatternResolver) ResolveAll(ctx context.Context, patternIDs []string) map[string]models.PatternStops {
	var (
		mu  sync.Mutex
		out = make(map[string]models.PatternStops, len(patternIDs))
		g   errgroup.Group
	)
	g.SetLimit(maxConcurrentPatterns)

	for _, id := range patternIDs {
		g.Go(func() error {
			stops := r.Resolve(ctx, id)
			mu.Lock()
			out[id] = stops
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// ErrorType gives a short label for logs that does not leak URLs or bodies
func ErrorType(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrUpstreamStatus):
		return "status"
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, errMalformedFeed):
		return "parse"
	}
	return "transport"
}
