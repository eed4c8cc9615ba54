package timesheet

import "time"

type Status string

const (
	StatusDraft             Status = "draft"
	StatusSubmitted         Status = "submitted"
	StatusAttentionRequired Status = "attention-required"
	StatusApproved          Status = "approved"
)

// CellEntry holds the minutes entered for one activity code on one day.
type CellEntry struct {
	Minutes       int     `json:"minutes"`
	Location      string  `json:"location"`
	Sent          bool    `json:"sent"`
	DeficitReason *string `json:"deficit_reason,omitempty"`
}

// Week is one user's weekly timesheet. Cells are keyed activity code -> date -> entry.
type Week struct {
	ID                 string
	UserID             string
	OrgID              string
	WeekStart          string // ISO Monday, YYYY-MM-DD
	Cells              map[string]map[string]CellEntry
	TotalMinutes       int
	Status             Status
	SubmittedAt        *time.Time
	WeekendOverrides   []string
	MissingReasonDates []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewWeek returns an empty draft week.
func NewWeek(userID, orgID, weekStart string) *Week {
	return &Week{
		UserID:    userID,
		OrgID:     orgID,
		WeekStart: weekStart,
		Cells:     make(map[string]map[string]CellEntry),
		Status:    StatusDraft,
	}
}
