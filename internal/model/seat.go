package model

import "github.com/google/uuid"

// MaxSeats is the upper bound for party size, seat count and table
// capacity. The room simply has no table bigger than six covers.
const MaxSeats = 6

// CourseCount and DrinkCount bound the firing dimensions of a table:
// six courses on the tasting menu and two drink pairings.
const (
	CourseCount = 6
	DrinkCount  = 2
)

// DrinkPreference records which pairing a guest opted into.
type DrinkPreference string

const (
	DrinkNone     DrinkPreference = "none"
	DrinkCocktail DrinkPreference = "cocktail"
	DrinkMocktail DrinkPreference = "mocktail"
)

// LateStatus tracks whether a cover has shown up yet.
type LateStatus string

const (
	LateOnTime  LateStatus = "on-time"
	LateLate    LateStatus = "late"
	LateArrived LateStatus = "arrived"
)

// Seat describes one cover within a reservation. Seat numbers define
// the position on the table visualization and the tie-break ordering;
// they are renumbered 1..N whenever the seat count changes, so they
// stay unique within a reservation but carry no identity of their own
// (the id does).
//
// Fields:
//  ID              - stable identifier, survives renumbering.
//  SeatNumber      - 1..6, position on the table.
//  LateStatus      - on-time, late or arrived.
//  AllergyNotes    - free text shown to the kitchen.
//  DrinkPreference - none, cocktail or mocktail.
//  ExcludedCourses - course indices (1..6) this cover skips.
//  ExcludedDrinks  - drink indices (1..2) this cover skips.
type Seat struct {
	ID              string          `json:"id"`
	SeatNumber      int             `json:"seatNumber"`
	LateStatus      LateStatus      `json:"lateStatus"`
	AllergyNotes    string          `json:"allergyNotes"`
	DrinkPreference DrinkPreference `json:"drinkPreference"`
	ExcludedCourses []int           `json:"excludedCourses"`
	ExcludedDrinks  []int           `json:"excludedDrinks"`
}

// NewSeat returns a fresh on-time seat carrying the given number.
func NewSeat(number int) Seat {
	return Seat{
		ID:              uuid.NewString(),
		SeatNumber:      number,
		LateStatus:      LateOnTime,
		AllergyNotes:    "",
		DrinkPreference: DrinkNone,
		ExcludedCourses: []int{},
		ExcludedDrinks:  []int{},
	}
}

// Clone returns a copy that shares no slices with the original, so
// observers can hold it as a disposable cache.
func (s Seat) Clone() Seat {
	out := s
	out.ExcludedCourses = append([]int(nil), s.ExcludedCourses...)
	out.ExcludedDrinks = append([]int(nil), s.ExcludedDrinks...)
	return out
}
