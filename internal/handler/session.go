package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
	"github.com/iliyamo/restaurant-service-sync/internal/persistence"
	"github.com/iliyamo/restaurant-service-sync/internal/store"
)

// SessionHandler exposes read-only views of live sessions over plain
// HTTP, for dashboards and printouts that do not hold a socket open.
// It shares the registry and hydration path with the gateway, so a
// browse never observes different state than the sockets do; it never
// mutates anything.
type SessionHandler struct {
	Registry *store.Registry
	Bridge   persistence.Bridge
}

// NewSessionHandler constructs a SessionHandler. Both dependencies
// must be non-nil.
func NewSessionHandler(registry *store.Registry, bridge persistence.Bridge) *SessionHandler {
	if registry == nil || bridge == nil {
		panic("nil registry or bridge passed to NewSessionHandler")
	}
	return &SessionHandler{Registry: registry, Bridge: bridge}
}

// sessionStore resolves the session's store, hydrating it from the
// bridge on first access just like the gateway does.
func (h *SessionHandler) sessionStore(ctx context.Context, sessionID string) *store.ServiceStore {
	s := h.Registry.Store(sessionID)
	s.EnsureHydrated(ctx, func(ctx context.Context) (*model.ServiceState, error) {
		return h.Bridge.Load(ctx, sessionID)
	})
	return s
}

// GetState handles GET /v1/sessions/:id/state and returns the full
// versioned snapshot.
func (h *SessionHandler) GetState(c echo.Context) error {
	s := h.sessionStore(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, s.Snapshot())
}

// tableView is a table plus the advisory seating summary: how many
// covers are booked onto it and whether that exceeds capacity. The
// engine never enforces capacity; the flag exists for the floor plan
// to highlight.
type tableView struct {
	model.Table
	Seated       int  `json:"seated"`
	OverCapacity bool `json:"overCapacity"`
}

// GetTables handles GET /v1/sessions/:id/tables.
func (h *SessionHandler) GetTables(c echo.Context) error {
	s := h.sessionStore(c.Request().Context(), c.Param("id"))
	snap := s.Snapshot()

	seated := make(map[string]int)
	for _, res := range snap.Reservations {
		if res.TableID != nil {
			seated[*res.TableID] += res.PartySize
		}
	}
	views := make([]tableView, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		views = append(views, tableView{
			Table:        t,
			Seated:       seated[t.ID],
			OverCapacity: seated[t.ID] > t.Capacity,
		})
	}
	return c.JSON(http.StatusOK, views)
}

// GetTimeline handles GET /v1/sessions/:id/timeline. The optional
// ?table= query parameter narrows the log to one table; events are
// newest-first within each table.
func (h *SessionHandler) GetTimeline(c echo.Context) error {
	s := h.sessionStore(c.Request().Context(), c.Param("id"))
	snap := s.Snapshot()

	tableID := c.QueryParam("table")
	if tableID == "" {
		return c.JSON(http.StatusOK, snap.Timeline)
	}
	events := make([]model.TimelineEvent, 0, len(snap.Timeline))
	for _, ev := range snap.Timeline {
		if ev.TableID == tableID {
			events = append(events, ev)
		}
	}
	return c.JSON(http.StatusOK, events)
}
