package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

// MySQLBridge stores one JSON snapshot per session in the
// service_sessions table. Mutations are frequent but snapshots are
// small (one restaurant's evening), so a whole-state upsert keeps the
// schema trivial and the load path a single row read.
type MySQLBridge struct {
	db *sql.DB
}

// NewMySQLBridge returns a bridge backed by the given database.
func NewMySQLBridge(db *sql.DB) *MySQLBridge {
	return &MySQLBridge{db: db}
}

// EnsureSchema creates the service_sessions table when missing. Safe
// to call on every startup.
func (b *MySQLBridge) EnsureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS service_sessions (
		id         VARCHAR(64) PRIMARY KEY,
		state      JSON        NOT NULL,
		updated_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`
	_, err := b.db.ExecContext(ctx, ddl)
	return err
}

// Load reads the session's snapshot. A missing row means a fresh
// session and returns (nil, nil).
func (b *MySQLBridge) Load(ctx context.Context, sessionID string) (*model.ServiceState, error) {
	var raw []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT state FROM service_sessions WHERE id = ?`, sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
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

// Save upserts the session's snapshot.
func (b *MySQLBridge) Save(ctx context.Context, sessionID string, state model.ServiceState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s snapshot: %w", sessionID, err)
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO service_sessions (id, state) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE state = VALUES(state)`,
		sessionID, raw,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}
