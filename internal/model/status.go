package model

import (
	"encoding/json"
	"fmt"
)

// ServiceStatusType is one stage of the firing cycle for a course or
// drink on a table.
type ServiceStatusType string

const (
	StatusStandby ServiceStatusType = "STANDBY"
	StatusPlateUp ServiceStatusType = "PLATE_UP"
	StatusPickUp  ServiceStatusType = "PICK_UP"
	StatusServed  ServiceStatusType = "SERVED"
)

// statusCycle is the fixed single-tap-advance order. A deterministic
// wraparound means the board never needs an explicit "reset" action:
// tapping past SERVED lands back on STANDBY.
var statusCycle = [...]ServiceStatusType{StatusStandby, StatusPlateUp, StatusPickUp, StatusServed}

// Next returns the stage that follows s in the firing cycle. An unknown
// value advances to STANDBY, mirroring an index of -1 into the cycle.
func (s ServiceStatusType) Next() ServiceStatusType {
	idx := -1
	for i, st := range statusCycle {
		if st == s {
			idx = i
			break
		}
	}
	return statusCycle[(idx+1)%len(statusCycle)]
}

// MessageLabel is the timeline rendering of the stage. PLATE_UP reads
// as FIRE on the board.
func (s ServiceStatusType) MessageLabel() string {
	if s == StatusPlateUp {
		return "FIRE"
	}
	return string(s)
}

// TargetKind says which firing dimension a status pins.
type TargetKind string

const (
	TargetCourse TargetKind = "course"
	TargetDrink  TargetKind = "drink"
)

// Valid reports whether k names a known firing dimension.
func (k TargetKind) Valid() bool {
	return k == TargetCourse || k == TargetDrink
}

// FireTarget pins a status to exactly one firing dimension of a table:
// a course slot (1..6) or a drink slot (1..2). Keeping it a tagged pair
// makes "exactly one of courseIndex/drinkIndex" a structural property
// rather than a convention over two optional fields.
type FireTarget struct {
	Kind  TargetKind
	Index int
}

// CourseTarget pins course slot index.
func CourseTarget(index int) FireTarget {
	return FireTarget{Kind: TargetCourse, Index: index}
}

// DrinkTarget pins drink slot index.
func DrinkTarget(index int) FireTarget {
	return FireTarget{Kind: TargetDrink, Index: index}
}

// Label renders the target for timeline messages, e.g. "Course 3" or
// "Drink 1".
func (t FireTarget) Label() string {
	if t.Kind == TargetDrink {
		return fmt.Sprintf("Drink %d", t.Index)
	}
	return fmt.Sprintf("Course %d", t.Index)
}

// ServiceStatus is the firing state of one course or drink slot on one
// table. There is at most one record per (table, target) key; updates
// replace, never append.
//
// UpdatedAt is unix milliseconds. The gateway overwrites it with the
// server clock on inbound updates regardless of what the client sent.
type ServiceStatus struct {
	TableID   string
	Target    FireTarget
	Status    ServiceStatusType
	UpdatedBy Role
	UpdatedAt int64
}

// Key is the composite map key for this status. An unset dimension
// serializes empty, so course 3 and drink 3 never collide.
func (s ServiceStatus) Key() string {
	return StatusKey(s.TableID, s.Target)
}

// StatusKey builds the composite key for one firing slot of a table.
func StatusKey(tableID string, target FireTarget) string {
	switch target.Kind {
	case TargetCourse:
		return fmt.Sprintf("%s:%d:", tableID, target.Index)
	case TargetDrink:
		return fmt.Sprintf("%s::%d", tableID, target.Index)
	}
	return tableID + "::"
}

// serviceStatusWire is the flat shape statuses take on the wire and in
// persisted snapshots: optional courseIndex/drinkIndex instead of the
// tagged target.
type serviceStatusWire struct {
	TableID     string            `json:"tableId"`
	CourseIndex *int              `json:"courseIndex,omitempty"`
	DrinkIndex  *int              `json:"drinkIndex,omitempty"`
	Status      ServiceStatusType `json:"status"`
	UpdatedBy   Role              `json:"updatedBy"`
	UpdatedAt   int64             `json:"updatedAt"`
}

// MarshalJSON flattens the tagged target into the wire fields.
func (s ServiceStatus) MarshalJSON() ([]byte, error) {
	out := serviceStatusWire{
		TableID:   s.TableID,
		Status:    s.Status,
		UpdatedBy: s.UpdatedBy,
		UpdatedAt: s.UpdatedAt,
	}
	idx := s.Target.Index
	switch s.Target.Kind {
	case TargetCourse:
		out.CourseIndex = &idx
	case TargetDrink:
		out.DrinkIndex = &idx
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the tagged target and rejects payloads that
// pin both dimensions or neither.
func (s *ServiceStatus) UnmarshalJSON(data []byte) error {
	var in serviceStatusWire
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.CourseIndex != nil && in.DrinkIndex != nil:
		return fmt.Errorf("status for table %s sets both courseIndex and drinkIndex", in.TableID)
	case in.CourseIndex != nil:
		s.Target = CourseTarget(*in.CourseIndex)
	case in.DrinkIndex != nil:
		s.Target = DrinkTarget(*in.DrinkIndex)
	default:
		return fmt.Errorf("status for table %s sets neither courseIndex nor drinkIndex", in.TableID)
	}
	s.TableID = in.TableID
	s.Status = in.Status
	s.UpdatedBy = in.UpdatedBy
	s.UpdatedAt = in.UpdatedAt
	return nil
}
