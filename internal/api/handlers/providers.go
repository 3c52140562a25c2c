package handlers

import (
	"context"

	"github.com/carris-monitor/busmon/internal/direction"
	"github.com/carris-monitor/busmon/internal/tracker"
)

// BusProvider abstracts the request-cycle service for testability.
type BusProvider interface {
	Buses(ctx context.Context, dir *direction.Config) tracker.Snapshot
}

// DirectionProvider looks up the configured travel directions.
type DirectionProvider interface {
	Get(id string) (*direction.Config, error)
	All() []*direction.Config
}

// CacheObserver is told about every response cache lookup.
type CacheObserver interface {
	ObserveCache(hit bool)
}
