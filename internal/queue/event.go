// Package queue defines message payloads exchanged over the message broker.
package queue

// TimelineEventMessage is published after every status mutation. It
// mirrors the broadcast timeline event plus the session and version so
// downstream consumers can log or analyze the firing history without
// holding a socket open to the gateway.
type TimelineEventMessage struct {
	SessionID string `json:"session_id"`
	TableID   string `json:"table_id"`
	Message   string `json:"message"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
	Version   int    `json:"version"`
}
