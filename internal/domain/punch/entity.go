package punch

import (
	"time"
)

// Type is the clock action recorded by a punch.
type Type string

const (
	TypeIn         Type = "IN"
	TypeOut        Type = "OUT"
	TypeBreakStart Type = "BREAK_START"
	TypeBreakEnd   Type = "BREAK_END"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeIn, TypeOut, TypeBreakStart, TypeBreakEnd:
		return true
	}
	return false
}

// State is the live status of a user, derived by replaying the day's events.
type State string

const (
	StateIdle    State = "IDLE"
	StateWorking State = "WORKING"
	StateOnBreak State = "ON_BREAK"
)

// Geo is a location stamp carried through unchanged.
type Geo struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

// Event is one immutable clock action. Timestamp is always stored in UTC.
type Event struct {
	ID        string
	UserID    string
	OrgID     string
	Type      Type
	Timestamp time.Time
	Note      *string
	Geo       *Geo
	CreatedAt time.Time
}
