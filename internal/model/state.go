package model

// ServiceState is the full view of one session: every reservation,
// table, status and timeline event, plus the version counter. The
// version increments by exactly 1 on every accepted mutation and is the
// sole ordering signal observers use to detect staleness.
type ServiceState struct {
	Version      int             `json:"version"`
	Reservations []Reservation   `json:"reservations"`
	Tables       []Table         `json:"tables"`
	Statuses     []ServiceStatus `json:"statuses"`
	Timeline     []TimelineEvent `json:"timeline"`
}
