// Package persistence is the optional snapshot bridge behind the
// session stores. The engine loads a session at most once, on first
// use, and saves the full snapshot after every mutation without
// awaiting the result. Persistence is best-effort: a failed save is
// logged by the caller and never surfaces to observers, and with no
// backing storage configured the engine runs correctly in-memory.
package persistence

import (
	"context"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

// Bridge loads and saves full session snapshots. Load returns
// (nil, nil) when no snapshot exists for the session.
type Bridge interface {
	Load(ctx context.Context, sessionID string) (*model.ServiceState, error)
	Save(ctx context.Context, sessionID string, state model.ServiceState) error
}

// Noop is the bridge used when no storage is configured: every load is
// absent and every save is ignored.
type Noop struct{}

// Load always reports an absent snapshot.
func (Noop) Load(ctx context.Context, sessionID string) (*model.ServiceState, error) {
	return nil, nil
}

// Save discards the snapshot.
func (Noop) Save(ctx context.Context, sessionID string, state model.ServiceState) error {
	return nil
}
