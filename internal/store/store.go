// Package store holds the authoritative in-memory state for live
// service sessions. One ServiceStore owns everything for one session;
// every accepted mutation increments the version counter by exactly 1
// and is immediately visible in the next snapshot. Callers receive
// deep copies, never references into the store's own maps.
package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-service-sync/internal/model"
)

// CreateReservationInput carries the fields a client supplies when
// booking a party. Everything else (id, order, seats, shape) is
// derived by the store.
type CreateReservationInput struct {
	GuestName       string `json:"guestName"`
	PartySize       int    `json:"partySize"`
	Datetime        string `json:"datetime"`
	Notes           string `json:"notes"`
	ExcludedCourses []int  `json:"excludedCourses"`
}

// ReservationPatch is a partial update; nil fields are left untouched.
type ReservationPatch struct {
	ID              string            `json:"id"`
	GuestName       *string           `json:"guestName"`
	PartySize       *int              `json:"partySize"`
	Datetime        *string           `json:"datetime"`
	Notes           *string           `json:"notes"`
	TableShape      *model.TableShape `json:"tableShape"`
	ExcludedCourses *[]int            `json:"excludedCourses"`
	Order           *int              `json:"order"`
}

// ServiceStore is the sole mutator of one session's state. All methods
// are safe for concurrent use; mutations within a session are strictly
// sequential under the store mutex.
type ServiceStore struct {
	mu           sync.Mutex
	version      int
	reservations map[string]*model.Reservation
	tables       map[string]model.Table
	statuses     map[string]model.ServiceStatus
	timeline     map[string][]model.TimelineEvent

	hydrateOnce sync.Once
}

// New returns an empty store at version 1.
func New() *ServiceStore {
	s := &ServiceStore{}
	s.Reset()
	return s
}

// Reset clears all state and restarts the version counter at 1.
// Calling it twice in a row yields identical snapshots.
func (s *ServiceStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = 1
	s.reservations = make(map[string]*model.Reservation)
	s.tables = make(map[string]model.Table)
	s.statuses = make(map[string]model.ServiceStatus)
	s.timeline = make(map[string][]model.TimelineEvent)
}

func (s *ServiceStore) nextVersionLocked() int {
	s.version++
	return s.version
}

// Snapshot returns the full session view. The timeline is flattened
// across tables; within one table events stay newest-first.
func (s *ServiceStore) Snapshot() model.ServiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ServiceStore) snapshotLocked() model.ServiceState {
	state := model.ServiceState{
		Version:      s.version,
		Reservations: make([]model.Reservation, 0, len(s.reservations)),
		Tables:       make([]model.Table, 0, len(s.tables)),
		Statuses:     make([]model.ServiceStatus, 0, len(s.statuses)),
		Timeline:     []model.TimelineEvent{},
	}
	for _, r := range s.reservations {
		state.Reservations = append(state.Reservations, r.Clone())
	}
	for _, t := range s.tables {
		state.Tables = append(state.Tables, t)
	}
	for _, st := range s.statuses {
		state.Statuses = append(state.Statuses, st)
	}
	for _, events := range s.timeline {
		state.Timeline = append(state.Timeline, events...)
	}
	return state
}

// EnsureHydrated loads a previously persisted snapshot into the store
// the first time it is called; concurrent callers coalesce onto the
// single in-flight attempt. A failed or absent load leaves the store
// fresh and the session runs purely in-memory. Hydration happens at
// most once per store lifetime, so a later reset is never undone by a
// stale persisted snapshot.
func (s *ServiceStore) EnsureHydrated(ctx context.Context, load func(context.Context) (*model.ServiceState, error)) {
	s.hydrateOnce.Do(func() {
		if load == nil {
			return
		}
		snap, err := load(ctx)
		if err != nil {
			log.Printf("store: hydration load failed, starting fresh: %v", err)
			return
		}
		if snap == nil {
			return
		}
		s.restore(*snap)
	})
}

func (s *ServiceStore) restore(state model.ServiceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = state.Version
	if s.version < 1 {
		s.version = 1
	}
	s.reservations = make(map[string]*model.Reservation, len(state.Reservations))
	for _, r := range state.Reservations {
		res := r.Clone()
		s.reservations[res.ID] = &res
	}
	s.tables = make(map[string]model.Table, len(state.Tables))
	for _, t := range state.Tables {
		s.tables[t.ID] = t
	}
	s.statuses = make(map[string]model.ServiceStatus, len(state.Statuses))
	for _, st := range state.Statuses {
		s.statuses[st.Key()] = st
	}
	// The snapshot flattens per-table runs in order, so appending in
	// encounter order rebuilds each table newest-first.
	s.timeline = make(map[string][]model.TimelineEvent)
	for _, ev := range state.Timeline {
		s.timeline[ev.TableID] = append(s.timeline[ev.TableID], ev)
	}
}

// UpdateTables replaces the whole table set. Entries with a blank name
// are dropped silently, capacities are clamped 1..6, and reservations
// pointing at a table that no longer exists lose their assignment.
func (s *ServiceStore) UpdateTables(tables []model.Table) ([]model.Table, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		t.Name = name
		t.Capacity = clamp(t.Capacity, 1, model.MaxSeats)
		kept = append(kept, t)
	}
	s.tables = make(map[string]model.Table, len(kept))
	for _, t := range kept {
		s.tables[t.ID] = t
	}
	for _, r := range s.reservations {
		if r.TableID != nil {
			if _, ok := s.tables[*r.TableID]; !ok {
				r.TableID = nil
			}
		}
	}
	return kept, s.nextVersionLocked()
}

// CreateReservation books a party. The guest name defaults to "Guest"
// when blank, party size is clamped 1..6, the display order lands
// after every existing reservation, and one fresh seat is generated
// per cover, numbered 1..N.
func (s *ServiceStore) CreateReservation(in CreateReservationInput) (model.Reservation, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := clamp(in.PartySize, 1, model.MaxSeats)
	name := strings.TrimSpace(in.GuestName)
	if name == "" {
		name = "Guest"
	}
	excluded := append([]int{}, in.ExcludedCourses...)
	maxOrder := 0
	for _, r := range s.reservations {
		if r.Order > maxOrder {
			maxOrder = r.Order
		}
	}
	res := &model.Reservation{
		ID:              uuid.NewString(),
		GuestName:       name,
		PartySize:       size,
		Datetime:        in.Datetime,
		Notes:           in.Notes,
		TableShape:      model.ShapeSquare,
		ExcludedCourses: excluded,
		Order:           maxOrder + 1,
		Seats:           freshSeats(size),
	}
	s.reservations[res.ID] = res
	return res.Clone(), s.nextVersionLocked()
}

// UpdateReservation patches only the provided fields. An unknown id is
// a no-op and returns nil; a blank trimmed guest name keeps the old
// name rather than blanking it.
func (s *ServiceStore) UpdateReservation(patch ReservationPatch) (*model.Reservation, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[patch.ID]
	if !ok {
		return nil, 0
	}
	if patch.GuestName != nil {
		if name := strings.TrimSpace(*patch.GuestName); name != "" {
			res.GuestName = name
		}
	}
	if patch.PartySize != nil {
		res.PartySize = clamp(*patch.PartySize, 1, model.MaxSeats)
	}
	if patch.Datetime != nil {
		res.Datetime = *patch.Datetime
	}
	if patch.Notes != nil {
		res.Notes = *patch.Notes
	}
	if patch.TableShape != nil {
		res.TableShape = *patch.TableShape
	}
	if patch.ExcludedCourses != nil {
		res.ExcludedCourses = append([]int{}, (*patch.ExcludedCourses)...)
	}
	if patch.Order != nil {
		res.Order = *patch.Order
	}
	out := res.Clone()
	return &out, s.nextVersionLocked()
}

// DeleteReservation removes the reservation. ok is false for an
// unknown id, in which case the version is untouched.
func (s *ServiceStore) DeleteReservation(id string) (version int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reservations[id]; !exists {
		return 0, false
	}
	delete(s.reservations, id)
	return s.nextVersionLocked(), true
}

// AssignTable sets or clears the reservation's table. The table id is
// deliberately not checked for existence: the board always assigns
// from the live table list, and an unknown id is harmless advisory
// state. A reservation that somehow lost its seats gets them
// regenerated from the party size.
func (s *ServiceStore) AssignTable(reservationID string, tableID *string) (*model.Reservation, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return nil, 0
	}
	if tableID != nil {
		id := *tableID
		res.TableID = &id
	} else {
		res.TableID = nil
	}
	if len(res.Seats) == 0 {
		res.Seats = freshSeats(res.PartySize)
	}
	out := res.Clone()
	return &out, s.nextVersionLocked()
}

// SetSeatCount grows or shrinks the seat list to count (clamped 1..6).
// Growth appends fresh seats, shrinking truncates, and either way the
// surviving seats are renumbered 1..count.
func (s *ServiceStore) SetSeatCount(reservationID string, count int) (*model.Reservation, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return nil, 0
	}
	count = clamp(count, 1, model.MaxSeats)
	for i := len(res.Seats) + 1; i <= count; i++ {
		res.Seats = append(res.Seats, model.NewSeat(i))
	}
	if count < len(res.Seats) {
		res.Seats = res.Seats[:count]
	}
	for i := range res.Seats {
		res.Seats[i].SeatNumber = i + 1
	}
	out := res.Clone()
	return &out, s.nextVersionLocked()
}

// UpdateSeat replaces the seat whose id matches. Returns nil when the
// reservation or the seat is unknown.
func (s *ServiceStore) UpdateSeat(reservationID string, seat model.Seat) (*model.Reservation, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationID]
	if !ok {
		return nil, 0
	}
	for i := range res.Seats {
		if res.Seats[i].ID == seat.ID {
			res.Seats[i] = seat.Clone()
			out := res.Clone()
			return &out, s.nextVersionLocked()
		}
	}
	return nil, 0
}

// UpdateStatus upserts the status by its composite key and prepends a
// timeline event describing the transition. It never fails.
func (s *ServiceStore) UpdateStatus(st model.ServiceStatus) (model.ServiceStatus, model.TimelineEvent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateStatusLocked(st)
}

func (s *ServiceStore) updateStatusLocked(st model.ServiceStatus) (model.ServiceStatus, model.TimelineEvent, int) {
	s.statuses[st.Key()] = st
	event := model.TimelineEvent{
		ID:        uuid.NewString(),
		TableID:   st.TableID,
		Message:   fmt.Sprintf("%s → %s", st.Target.Label(), st.Status.MessageLabel()),
		CreatedBy: st.UpdatedBy,
		CreatedAt: st.UpdatedAt,
	}
	s.timeline[st.TableID] = append([]model.TimelineEvent{event}, s.timeline[st.TableID]...)
	return st, event, s.nextVersionLocked()
}

// AdvanceStatus moves the slot one step along the firing cycle,
// starting from STANDBY when no status exists yet, and records the
// transition like UpdateStatus.
func (s *ServiceStore) AdvanceStatus(tableID string, target model.FireTarget, by model.Role) (model.ServiceStatus, model.TimelineEvent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := model.StatusStandby
	if existing, ok := s.statuses[model.StatusKey(tableID, target)]; ok {
		current = existing.Status
	}
	st := model.ServiceStatus{
		TableID:   tableID,
		Target:    target,
		Status:    current.Next(),
		UpdatedBy: by,
		UpdatedAt: time.Now().UnixMilli(),
	}
	return s.updateStatusLocked(st)
}

// TableCapacity reports the configured capacity of a table, for the
// advisory over-capacity hint on the floor plan.
func (s *ServiceStore) TableCapacity(tableID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[tableID]
	if !ok {
		return 0, false
	}
	return t.Capacity, true
}

func freshSeats(count int) []model.Seat {
	seats := make([]model.Seat, 0, count)
	for i := 1; i <= count; i++ {
		seats = append(seats, model.NewSeat(i))
	}
	return seats
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
