package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
	"github.com/iliyamo/restaurant-service-sync/internal/persistence"
	"github.com/iliyamo/restaurant-service-sync/internal/queue"
	"github.com/iliyamo/restaurant-service-sync/internal/store"
)

// fakeMember records every frame a room delivers to it.
type fakeMember struct {
	frames [][]byte
}

func (f *fakeMember) deliver(data []byte) bool {
	f.frames = append(f.frames, data)
	return true
}

func (f *fakeMember) closeSend() {}

type decodedFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Version int             `json:"version"`
}

func (f *fakeMember) decoded(t *testing.T) []decodedFrame {
	t.Helper()
	out := make([]decodedFrame, 0, len(f.frames))
	for _, raw := range f.frames {
		var d decodedFrame
		require.NoError(t, json.Unmarshal(raw, &d))
		out = append(out, d)
	}
	return out
}

func newTestRoom(t *testing.T) (*Gateway, *room, *fakeMember) {
	t.Helper()
	g := New(store.NewRegistry(), persistence.Noop{}, "live")
	r := g.room("live")
	m := &fakeMember{}
	r.mu.Lock()
	r.members[m] = struct{}{}
	r.mu.Unlock()
	return g, r, m
}

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	require.NoError(t, err)
	return raw
}

func TestCreateReservationBroadcastsWithVersion(t *testing.T) {
	g, r, m := newTestRoom(t)

	g.dispatch(r, frame(t, EvCreateReservation, map[string]any{
		"guestName": "Ada", "partySize": 4, "datetime": "2026-09-01T19:00:00Z",
	}))

	frames := m.decoded(t)
	require.Len(t, frames, 1)
	assert.Equal(t, EvReservationCreated, frames[0].Event)
	assert.Equal(t, 2, frames[0].Version)

	var res model.Reservation
	require.NoError(t, json.Unmarshal(frames[0].Payload, &res))
	assert.Equal(t, "Ada", res.GuestName)
	assert.Len(t, res.Seats, 4)
}

func TestUnknownTargetsAreDroppedSilently(t *testing.T) {
	g, r, m := newTestRoom(t)

	g.dispatch(r, frame(t, EvUpdateReservation, map[string]any{"id": "missing", "notes": "late"}))
	g.dispatch(r, frame(t, EvDeleteReservation, map[string]any{"id": "missing"}))
	g.dispatch(r, frame(t, EvAssignTable, map[string]any{"reservationId": "missing", "tableId": "t1"}))
	g.dispatch(r, frame(t, EvUpdateSeatCount, map[string]any{"reservationId": "missing", "count": 3}))

	assert.Empty(t, m.frames)
	assert.Equal(t, 1, r.store.Snapshot().Version)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	g, r, m := newTestRoom(t)

	g.dispatch(r, []byte("not json"))
	g.dispatch(r, frame(t, "bogus_event", map[string]any{}))
	// A status that pins both dimensions violates the wire contract.
	g.dispatch(r, frame(t, EvUpdateStatus, map[string]any{"status": map[string]any{
		"tableId": "t1", "courseIndex": 1, "drinkIndex": 1, "status": "PLATE_UP", "updatedBy": "BOH",
	}}))

	assert.Empty(t, m.frames)
}

func TestStatusUpdateEmitsStatusAndTimeline(t *testing.T) {
	g, r, m := newTestRoom(t)

	before := time.Now().UnixMilli()
	g.dispatch(r, frame(t, EvUpdateStatus, map[string]any{"status": map[string]any{
		"tableId": "t1", "courseIndex": 1, "status": "PLATE_UP", "updatedBy": "BOH", "updatedAt": 12345,
	}}))

	frames := m.decoded(t)
	require.Len(t, frames, 2)
	assert.Equal(t, EvStatusUpdated, frames[0].Event)
	assert.Equal(t, EvTimelineEvent, frames[1].Event)
	assert.Equal(t, frames[0].Version, frames[1].Version)

	var st model.ServiceStatus
	require.NoError(t, json.Unmarshal(frames[0].Payload, &st))
	// The server clock wins over the client-supplied updatedAt.
	assert.GreaterOrEqual(t, st.UpdatedAt, before)

	var ev timelinePayload
	require.NoError(t, json.Unmarshal(frames[1].Payload, &ev))
	assert.Equal(t, "Course 1 → FIRE", ev.Message)
	assert.Equal(t, model.RoleBOH, ev.CreatedBy)
}

func TestAdvanceStatusWalksTheCycle(t *testing.T) {
	g, r, m := newTestRoom(t)

	advance := frame(t, EvAdvanceStatus, map[string]any{
		"tableId": "t1", "kind": "course", "index": 1, "updatedBy": "BOH",
	})
	want := []model.ServiceStatusType{
		model.StatusPlateUp, model.StatusPickUp, model.StatusServed, model.StatusStandby,
	}
	for range want {
		g.dispatch(r, advance)
	}

	frames := m.decoded(t)
	require.Len(t, frames, 8) // status_updated + timeline_event per advance
	for i, expected := range want {
		var st model.ServiceStatus
		require.NoError(t, json.Unmarshal(frames[2*i].Payload, &st))
		assert.Equal(t, expected, st.Status)
	}

	// An unknown kind is ignored outright.
	g.dispatch(r, frame(t, EvAdvanceStatus, map[string]any{
		"tableId": "t1", "kind": "dessert", "index": 1, "updatedBy": "BOH",
	}))
	assert.Len(t, m.frames, 8)
}

func TestSeatMutationsFunnelThroughSeatUpdated(t *testing.T) {
	g, r, m := newTestRoom(t)

	g.dispatch(r, frame(t, EvCreateReservation, map[string]any{"guestName": "Ada", "partySize": 2}))
	frames := m.decoded(t)
	var res model.Reservation
	require.NoError(t, json.Unmarshal(frames[0].Payload, &res))

	g.dispatch(r, frame(t, EvUpdateSeatCount, map[string]any{"reservationId": res.ID, "count": 4}))
	seat := res.Seats[0]
	seat.AllergyNotes = "nuts"
	g.dispatch(r, frame(t, EvUpdateSeat, map[string]any{"reservationId": res.ID, "seat": seat}))

	frames = m.decoded(t)
	require.Len(t, frames, 3)
	assert.Equal(t, EvSeatUpdated, frames[1].Event)
	assert.Equal(t, EvSeatUpdated, frames[2].Event)

	var after model.Reservation
	require.NoError(t, json.Unmarshal(frames[2].Payload, &after))
	require.Len(t, after.Seats, 4)
	assert.Equal(t, "nuts", after.Seats[0].AllergyNotes)
}

func TestBroadcastVersionSequenceIsGapless(t *testing.T) {
	g, r, m := newTestRoom(t)

	g.dispatch(r, frame(t, EvCreateReservation, map[string]any{"guestName": "Ada", "partySize": 2}))
	g.dispatch(r, frame(t, EvUpdateTables, map[string]any{"tables": []map[string]any{
		{"id": "t1", "name": "Window", "capacity": 4},
	}}))
	g.dispatch(r, frame(t, EvUpdateReservation, map[string]any{"id": "missing"})) // no broadcast
	g.dispatch(r, frame(t, EvAdvanceStatus, map[string]any{
		"tableId": "t1", "kind": "drink", "index": 1, "updatedBy": "FOH",
	}))

	frames := m.decoded(t)
	require.Len(t, frames, 4)
	assert.Equal(t, []int{2, 3, 4, 4}, []int{
		frames[0].Version, frames[1].Version, frames[2].Version, frames[3].Version,
	})
}

func TestResetRequiresKnownRole(t *testing.T) {
	g, r, m := newTestRoom(t)

	g.dispatch(r, frame(t, EvCreateReservation, map[string]any{"guestName": "Ada", "partySize": 2}))
	g.dispatch(r, frame(t, EvResetService, map[string]any{"requestedBy": "CHEF"}))

	frames := m.decoded(t)
	require.Len(t, frames, 1) // only the create; the bogus reset was ignored

	g.dispatch(r, frame(t, EvResetService, map[string]any{"requestedBy": "FOH"}))
	frames = m.decoded(t)
	require.Len(t, frames, 2)
	assert.Equal(t, EvResetDone, frames[1].Event)
	assert.Zero(t, frames[1].Version) // snapshots carry their own version

	var snap model.ServiceState
	require.NoError(t, json.Unmarshal(frames[1].Payload, &snap))
	assert.Equal(t, 1, snap.Version)
	assert.Empty(t, snap.Reservations)
}

func TestStatusMutationPublishesAuditMessage(t *testing.T) {
	g, r, _ := newTestRoom(t)

	var mu sync.Mutex
	published := make([]queue.TimelineEventMessage, 0, 1)
	done := make(chan struct{})
	g.SetPublisher(func(ctx context.Context, msg queue.TimelineEventMessage) error {
		mu.Lock()
		published = append(published, msg)
		mu.Unlock()
		close(done)
		return nil
	})

	g.dispatch(r, frame(t, EvAdvanceStatus, map[string]any{
		"tableId": "t1", "kind": "course", "index": 1, "updatedBy": "BOH",
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audit publish was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, "live", published[0].SessionID)
	assert.Equal(t, "t1", published[0].TableID)
	assert.Equal(t, "Course 1 → FIRE", published[0].Message)
	assert.Equal(t, 2, published[0].Version)
}

func TestSlowObserversAreDropped(t *testing.T) {
	g, r, _ := newTestRoom(t)

	stalled := &stalledMember{}
	r.mu.Lock()
	r.members[stalled] = struct{}{}
	r.mu.Unlock()

	g.dispatch(r, frame(t, EvCreateReservation, map[string]any{"guestName": "Ada", "partySize": 2}))

	r.mu.Lock()
	_, present := r.members[stalled]
	r.mu.Unlock()
	assert.False(t, present)
	assert.True(t, stalled.closed)
}

type stalledMember struct {
	closed bool
}

func (s *stalledMember) deliver([]byte) bool { return false }
func (s *stalledMember) closeSend()          { s.closed = true }
