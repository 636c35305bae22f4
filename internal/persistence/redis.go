package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

// RedisBridge keeps one JSON snapshot per session under a
// "session:<id>" key, with no expiry: a service session should survive
// a server restart mid-evening.
type RedisBridge struct {
	rdb *redis.Client
}

// NewRedisBridge returns a bridge backed by the given client.
func NewRedisBridge(rdb *redis.Client) *RedisBridge {
	return &RedisBridge{rdb: rdb}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Load reads the session's snapshot; a missing key returns (nil, nil).
func (b *RedisBridge) Load(ctx context.Context, sessionID string) (*model.ServiceState, error) {
	raw, err := b.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var state model.ServiceState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session %s snapshot: %w", sessionID, err)
	}
	return &state, nil
}

// Save overwrites the session's snapshot.
func (b *RedisBridge) Save(ctx context.Context, sessionID string, state model.ServiceState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s snapshot: %w", sessionID, err)
	}
	if err := b.rdb.Set(ctx, sessionKey(sessionID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}
