package model

// TableShape is how the table is drawn on the floor plan. It is purely
// presentational but travels with the reservation so every screen draws
// the same shape.
type TableShape string

const (
	ShapeSquare    TableShape = "square"
	ShapeRound     TableShape = "round"
	ShapeOval      TableShape = "oval"
	ShapeBanquette TableShape = "banquette"
	ShapeCounter   TableShape = "counter"
)

// Reservation is a booked party for the service.
//
// Fields:
//  ID              - identifier assigned on creation.
//  GuestName       - trimmed, never empty ("Guest" when blank).
//  PartySize       - clamped 1..6; the seat list is resizable
//                    independently of it.
//  Datetime        - ISO datetime string as supplied by the client.
//  Notes           - free text.
//  TableID         - assigned table, nil while unassigned.
//  TableShape      - square, round, oval, banquette or counter.
//  ExcludedCourses - reservation-level course exclusions (1..6),
//                    applying to the whole table.
//  Order           - display/drag position, monotonic on creation and
//                    user-reorderable afterwards.
//  Seats           - the covers, numbered 1..len(Seats).
type Reservation struct {
	ID              string     `json:"id"`
	GuestName       string     `json:"guestName"`
	PartySize       int        `json:"partySize"`
	Datetime        string     `json:"datetime"`
	Notes           string     `json:"notes"`
	TableID         *string    `json:"tableId"`
	TableShape      TableShape `json:"tableShape"`
	ExcludedCourses []int      `json:"excludedCourses"`
	Order           int        `json:"order"`
	Seats           []Seat     `json:"seats"`
}

// Clone returns a deep copy safe to hand to observers.
func (r Reservation) Clone() Reservation {
	out := r
	if r.TableID != nil {
		id := *r.TableID
		out.TableID = &id
	}
	out.ExcludedCourses = append([]int(nil), r.ExcludedCourses...)
	out.Seats = make([]Seat, len(r.Seats))
	for i, s := range r.Seats {
		out.Seats[i] = s.Clone()
	}
	return out
}
