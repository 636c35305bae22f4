// Package gateway implements the pub/sub contract between connected
// observers and the session stores: inbound mutation requests are
// applied to the session's store and the resulting delta is broadcast,
// tagged with the new version, to every observer joined to that
// session, the originator included. Mutation apply and broadcast
// enqueue happen under one per-session lock, so all observers see the
// identical total order of transitions and a gapless version sequence.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
	"github.com/iliyamo/restaurant-service-sync/internal/persistence"
	"github.com/iliyamo/restaurant-service-sync/internal/queue"
	"github.com/iliyamo/restaurant-service-sync/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Internal staff tool; pass displays and tablets connect from
	// other origins on the venue network.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Gateway owns the rooms and wires them to the store registry, the
// persistence bridge and the audit publisher.
type Gateway struct {
	registry       *store.Registry
	bridge         persistence.Bridge
	defaultSession string
	publish        func(context.Context, queue.TimelineEventMessage) error

	mu    sync.Mutex
	rooms map[string]*room
}

// New returns a gateway over the given registry and bridge. Observers
// that declare no session land in defaultSession.
func New(registry *store.Registry, bridge persistence.Bridge, defaultSession string) *Gateway {
	if registry == nil || bridge == nil {
		panic("nil registry or bridge passed to gateway.New")
	}
	return &Gateway{
		registry:       registry,
		bridge:         bridge,
		defaultSession: defaultSession,
		rooms:          make(map[string]*room),
	}
}

// SetPublisher wires the fire-and-forget audit publisher for status
// transitions. A nil publisher disables audit publishing.
func (g *Gateway) SetPublisher(fn func(context.Context, queue.TimelineEventMessage) error) {
	g.publish = fn
}

// room groups the observers of one session with its store. Its mutex
// serializes membership changes and the apply+broadcast sequence.
type room struct {
	sessionID string
	store     *store.ServiceStore

	mu      sync.Mutex
	members map[member]struct{}
}

func (g *Gateway) room(sessionID string) *room {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[sessionID]
	if !ok {
		r = &room{
			sessionID: sessionID,
			store:     g.registry.Store(sessionID),
			members:   make(map[member]struct{}),
		}
		g.rooms[sessionID] = r
	}
	return r
}

// broadcastLocked fans one frame out to every member. Members that
// cannot keep up are dropped on the spot. Caller holds r.mu.
func (r *room) broadcastLocked(msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("gateway: marshal %s broadcast: %v", msg.Event, err)
		return
	}
	for m := range r.members {
		if !m.deliver(data) {
			log.Printf("gateway: dropping slow observer from session %s", r.sessionID)
			delete(r.members, m)
			m.closeSend()
		}
	}
}

// deliverLocked sends one frame to a single member (the join snapshot).
func (r *room) deliverLocked(m member, msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("gateway: marshal %s frame: %v", msg.Event, err)
		return
	}
	if !m.deliver(data) {
		delete(r.members, m)
		m.closeSend()
	}
}

func (r *room) removeLocked(m member) {
	if _, ok := r.members[m]; ok {
		delete(r.members, m)
		m.closeSend()
	}
}

// ServeWS upgrades the connection, joins the observer to its declared
// session (or the default), hydrates the store once per store lifetime
// and sends the full snapshot, then serves mutation requests until the
// observer disconnects. No per-observer state outlives the connection.
func (g *Gateway) ServeWS(c echo.Context) error {
	sessionID := c.QueryParam("session")
	if sessionID == "" {
		sessionID = g.defaultSession
	}
	role := model.Role(c.QueryParam("role"))
	if !role.Valid() {
		role = model.RoleFOH
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	client := newClient(conn, role)
	r := g.room(sessionID)
	log.Printf("gateway: %s observer joined session %s", role, sessionID)

	go client.writePump()

	r.mu.Lock()
	r.members[client] = struct{}{}
	g.hydrateLocked(r)
	r.deliverLocked(client, outbound{Event: EvState, Payload: r.store.Snapshot()})
	r.mu.Unlock()

	g.readLoop(r, client)
	return nil
}

func (g *Gateway) readLoop(r *room, c *Client) {
	defer func() {
		r.mu.Lock()
		r.removeLocked(c)
		r.mu.Unlock()
		log.Printf("gateway: %s observer left session %s", c.role, r.sessionID)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		g.dispatch(r, data)
	}
}

// dispatch applies one inbound frame. Unknown events, malformed
// payloads and mutations against unknown ids are dropped silently (a
// log line aside); the protocol has no observer-visible error channel.
func (g *Gateway) dispatch(r *room, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("gateway: bad frame on session %s: %v", r.sessionID, err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g.hydrateLocked(r)
	g.handleLocked(r, env)
}

func (g *Gateway) handleLocked(r *room, env envelope) {
	switch env.Event {
	case EvCreateReservation:
		var in store.CreateReservationInput
		if !decode(env, &in, r.sessionID) {
			return
		}
		res, v := r.store.CreateReservation(in)
		r.broadcastLocked(outbound{Event: EvReservationCreated, Payload: res, Version: v})
		g.persistLocked(r)

	case EvUpdateReservation:
		var patch store.ReservationPatch
		if !decode(env, &patch, r.sessionID) {
			return
		}
		res, v := r.store.UpdateReservation(patch)
		if res == nil {
			return
		}
		r.broadcastLocked(outbound{Event: EvReservationUpdated, Payload: res, Version: v})
		g.persistLocked(r)

	case EvDeleteReservation:
		var p deletePayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		v, ok := r.store.DeleteReservation(p.ID)
		if !ok {
			return
		}
		r.broadcastLocked(outbound{Event: EvReservationRemoved, Payload: p.ID, Version: v})
		g.persistLocked(r)

	case EvUpdateTables:
		var p tablesPayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		tables, v := r.store.UpdateTables(p.Tables)
		r.broadcastLocked(outbound{Event: EvTablesUpdated, Payload: tables, Version: v})
		g.persistLocked(r)

	case EvAssignTable:
		var p assignPayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		res, v := r.store.AssignTable(p.ReservationID, p.TableID)
		if res == nil {
			return
		}
		r.broadcastLocked(outbound{Event: EvTableAssigned, Payload: res, Version: v})
		g.persistLocked(r)

	case EvUpdateSeat:
		var p seatPayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		res, v := r.store.UpdateSeat(p.ReservationID, p.Seat)
		if res == nil {
			return
		}
		r.broadcastLocked(outbound{Event: EvSeatUpdated, Payload: res, Version: v})
		g.persistLocked(r)

	case EvUpdateSeatCount:
		var p seatCountPayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		res, v := r.store.SetSeatCount(p.ReservationID, p.Count)
		if res == nil {
			return
		}
		r.broadcastLocked(outbound{Event: EvSeatUpdated, Payload: res, Version: v})
		g.persistLocked(r)

	case EvUpdateStatus:
		var p statusPayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		st := p.Status
		st.UpdatedAt = time.Now().UnixMilli() // server clock wins over the client's
		g.applyStatusLocked(r, func() (model.ServiceStatus, model.TimelineEvent, int) {
			return r.store.UpdateStatus(st)
		})

	case EvAdvanceStatus:
		var p advancePayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		if !p.Kind.Valid() {
			return
		}
		target := model.CourseTarget(p.Index)
		if p.Kind == model.TargetDrink {
			target = model.DrinkTarget(p.Index)
		}
		g.applyStatusLocked(r, func() (model.ServiceStatus, model.TimelineEvent, int) {
			return r.store.AdvanceStatus(p.TableID, target, p.UpdatedBy)
		})

	case EvResetService:
		var p resetPayload
		if !decode(env, &p, r.sessionID) {
			return
		}
		if !p.RequestedBy.Valid() {
			return
		}
		g.registry.Reset(r.sessionID)
		r.broadcastLocked(outbound{Event: EvResetDone, Payload: r.store.Snapshot()})
		g.persistLocked(r)

	default:
		log.Printf("gateway: unknown event %q on session %s", env.Event, r.sessionID)
	}
}

// applyStatusLocked runs one status mutation and emits the pair of
// broadcasts it produces: the status delta and the timeline entry.
func (g *Gateway) applyStatusLocked(r *room, apply func() (model.ServiceStatus, model.TimelineEvent, int)) {
	st, ev, v := apply()
	r.broadcastLocked(outbound{Event: EvStatusUpdated, Payload: st, Version: v})
	r.broadcastLocked(outbound{Event: EvTimelineEvent, Payload: timelinePayload{
		TableID:   ev.TableID,
		Message:   ev.Message,
		CreatedBy: ev.CreatedBy,
		CreatedAt: ev.CreatedAt,
	}, Version: v})
	g.publishTimeline(r.sessionID, ev, v)
	g.persistLocked(r)
}

// hydrateLocked waits for the store's once-per-lifetime load. Every
// call after the first returns immediately.
func (g *Gateway) hydrateLocked(r *room) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.store.EnsureHydrated(ctx, func(ctx context.Context) (*model.ServiceState, error) {
		return g.bridge.Load(ctx, r.sessionID)
	})
}

// persistLocked snapshots under the room lock, so the saved state is
// exactly what was broadcast, then saves without blocking the mutation
// path. A failed save is logged and the session keeps running
// in-memory.
func (g *Gateway) persistLocked(r *room) {
	snap := r.store.Snapshot()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.bridge.Save(ctx, r.sessionID, snap); err != nil {
			log.Printf("gateway: persist session %s failed: %v", r.sessionID, err)
		}
	}()
}

func (g *Gateway) publishTimeline(sessionID string, ev model.TimelineEvent, version int) {
	if g.publish == nil {
		return
	}
	msg := queue.TimelineEventMessage{
		SessionID: sessionID,
		TableID:   ev.TableID,
		Message:   ev.Message,
		CreatedBy: string(ev.CreatedBy),
		CreatedAt: ev.CreatedAt,
		Version:   version,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = g.publish(ctx, msg) // the publisher logs its own failures
	}()
}

func decode(env envelope, dst any, sessionID string) bool {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		log.Printf("gateway: bad %s payload on session %s: %v", env.Event, sessionID, err)
		return false
	}
	return true
}
