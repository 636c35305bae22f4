package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
	"github.com/iliyamo/restaurant-service-sync/internal/persistence"
	"github.com/iliyamo/restaurant-service-sync/internal/store"
)

func sessionContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("live")
	return c, rec
}

func TestGetStateReturnsVersionedSnapshot(t *testing.T) {
	e := echo.New()
	registry := store.NewRegistry()
	registry.Store("live").CreateReservation(store.CreateReservationInput{GuestName: "Ada", PartySize: 2})
	h := NewSessionHandler(registry, persistence.Noop{})

	c, rec := sessionContext(e, "/v1/sessions/live/state")
	require.NoError(t, h.GetState(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var snap model.ServiceState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.Version)
	require.Len(t, snap.Reservations, 1)
	assert.Equal(t, "Ada", snap.Reservations[0].GuestName)
}

func TestGetTablesReportsAdvisoryOverCapacity(t *testing.T) {
	e := echo.New()
	registry := store.NewRegistry()
	s := registry.Store("live")
	s.UpdateTables([]model.Table{{ID: "t1", Name: "Window", Capacity: 2}})
	res, _ := s.CreateReservation(store.CreateReservationInput{GuestName: "Ada", PartySize: 5})
	tableID := "t1"
	s.AssignTable(res.ID, &tableID)
	h := NewSessionHandler(registry, persistence.Noop{})

	c, rec := sessionContext(e, "/v1/sessions/live/tables")
	require.NoError(t, h.GetTables(c))

	var views []struct {
		model.Table
		Seated       int  `json:"seated"`
		OverCapacity bool `json:"overCapacity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, 5, views[0].Seated)
	assert.True(t, views[0].OverCapacity) // advisory only, assignment still stood
}

func TestGetTimelineFiltersByTable(t *testing.T) {
	e := echo.New()
	registry := store.NewRegistry()
	s := registry.Store("live")
	s.AdvanceStatus("t1", model.CourseTarget(1), model.RoleBOH)
	s.AdvanceStatus("t2", model.CourseTarget(1), model.RoleBOH)
	s.AdvanceStatus("t1", model.CourseTarget(1), model.RoleBOH)
	h := NewSessionHandler(registry, persistence.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/live/timeline?table=t1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("live")
	require.NoError(t, h.GetTimeline(c))

	var events []model.TimelineEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "Course 1 → PICK_UP", events[0].Message)
	assert.Equal(t, "Course 1 → FIRE", events[1].Message)
}
