package gateway

import (
	"encoding/json"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

// Inbound event names, observer to gateway.
const (
	EvCreateReservation = "create_reservation"
	EvUpdateReservation = "update_reservation"
	EvDeleteReservation = "delete_reservation"
	EvUpdateTables      = "update_tables"
	EvAssignTable       = "assign_table"
	EvUpdateSeat        = "update_seat"
	EvUpdateSeatCount   = "update_seat_count"
	EvUpdateStatus      = "update_status"
	EvAdvanceStatus     = "advance_status"
	EvResetService      = "reset_service"
)

// Outbound event names, gateway to every observer of the session.
const (
	EvState              = "state"
	EvReservationCreated = "reservation_created"
	EvReservationUpdated = "reservation_updated"
	EvReservationRemoved = "reservation_removed"
	EvTablesUpdated      = "tables_updated"
	EvTableAssigned      = "table_assigned"
	EvSeatUpdated        = "seat_updated"
	EvStatusUpdated      = "status_updated"
	EvTimelineEvent      = "timeline_event"
	EvResetDone          = "reset_done"
)

// envelope is the inbound frame: an event name plus its payload, left
// raw until the event is known.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// outbound is the broadcast frame. Version carries the post-mutation
// version for delta events and is omitted for the full snapshots
// (state, reset_done), which embed their own version.
type outbound struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Version int    `json:"version,omitempty"`
}

type deletePayload struct {
	ID string `json:"id"`
}

type tablesPayload struct {
	Tables []model.Table `json:"tables"`
}

type assignPayload struct {
	ReservationID string  `json:"reservationId"`
	TableID       *string `json:"tableId"`
}

type seatPayload struct {
	ReservationID string     `json:"reservationId"`
	Seat          model.Seat `json:"seat"`
}

type seatCountPayload struct {
	ReservationID string `json:"reservationId"`
	Count         int    `json:"count"`
}

type statusPayload struct {
	Status model.ServiceStatus `json:"status"`
}

type advancePayload struct {
	TableID   string           `json:"tableId"`
	Kind      model.TargetKind `json:"kind"`
	Index     int              `json:"index"`
	UpdatedBy model.Role       `json:"updatedBy"`
}

type resetPayload struct {
	RequestedBy model.Role `json:"requestedBy"`
}

// timelinePayload is the broadcast shape of a timeline event. It omits
// the server-side id; receivers assign their own.
type timelinePayload struct {
	TableID   string     `json:"tableId"`
	Message   string     `json:"message"`
	CreatedBy model.Role `json:"createdBy"`
	CreatedAt int64      `json:"createdAt"`
}
