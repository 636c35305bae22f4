package model

// Table is a physical seating unit on the floor. Tables are configured
// independently of reservations; removing a table nulls the TableID of
// any reservation that referenced it.
//
// Fields:
//  ID       - identifier chosen by the floor plan editor.
//  Name     - display name, non-empty after trimming.
//  Capacity - covers the table holds, clamped 1..6. Over-capacity
//             seating is advisory only and never enforced.
type Table struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}
