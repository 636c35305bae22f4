package model

// TimelineEvent is an immutable audit entry produced as a side effect
// of every status update. Events are append-only per table and kept
// newest-first.
//
// Fields:
//  ID        - identifier assigned when the event is recorded.
//  TableID   - table the event belongs to.
//  Message   - human-readable transition, e.g. "Course 1 → FIRE".
//  CreatedBy - role that triggered the transition.
//  CreatedAt - unix milliseconds, taken from the status update.
type TimelineEvent struct {
	ID        string `json:"id"`
	TableID   string `json:"tableId"`
	Message   string `json:"message"`
	CreatedBy Role   `json:"createdBy"`
	CreatedAt int64  `json:"createdAt"`
}
