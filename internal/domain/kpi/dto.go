package kpi

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// KPI REQUEST
// ========================================

type RangeRequest struct {
	OrgID string `json:"-"`
	From  string `json:"from"` // YYYY-MM-DD
	To    string `json:"to"`   // YYYY-MM-DD
}

func (r *RangeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id is required",
		})
	}

	from, fromOK := validator.IsValidDate(r.From)
	if !fromOK {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}

	to, toOK := validator.IsValidDate(r.To)
	if !toOK {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}

	if fromOK && toOK {
		if to.Before(from) {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must not be before from",
			})
		} else if to.Sub(from) > 366*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "range must not exceed one year",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// KPI RESPONSES
// ========================================

// Snapshot is the presentation form of Totals. Percentages are 0-100 and
// every value is rounded to one decimal.
type Snapshot struct {
	OnTimeRate      float64 `json:"on_time_rate"`
	AvgHoursPerDay  float64 `json:"avg_hours_per_day"`
	LateCount       int     `json:"late_count"`
	Absences        int     `json:"absences"`
	OvertimeHours   float64 `json:"overtime_hours"`
	BadgeCompliance float64 `json:"badge_compliance"`
	CountedDays     int     `json:"counted_days"`
	ExpectedDays    int     `json:"expected_days"`
}

type SnapshotResponse struct {
	OrgID    string   `json:"org_id"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Snapshot Snapshot `json:"snapshot"`
}

type TeamBreakdown struct {
	TeamID   string   `json:"team_id"`
	Members  int      `json:"members"`
	Snapshot Snapshot `json:"snapshot"`
}

type DateBreakdown struct {
	Date     string   `json:"date"`
	Snapshot Snapshot `json:"snapshot"`
}

type WeekStatus string

const (
	WeekStatusApproved WeekStatus = "approved"
	WeekStatusPending  WeekStatus = "pending"
)

// WeeklyRow is a timesheet row for one user and one ISO week.
type WeeklyRow struct {
	UserID          string     `json:"user_id"`
	WeekStart       string     `json:"week_start"`
	WorkedMinutes   int        `json:"worked_minutes"`
	ExpectedMinutes int        `json:"expected_minutes"`
	OvertimeMinutes int        `json:"overtime_minutes"`
	LateDays        int        `json:"late_days"`
	Absences        int        `json:"absences"`
	WorkedHours     float64    `json:"worked_hours"`
	Status          WeekStatus `json:"status"`
}

// LiveEntry is one row of the live badge board.
type LiveEntry struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	TeamID         string  `json:"team_id"`
	State          string  `json:"state"`
	SessionStart   *string `json:"session_start,omitempty"`
	ElapsedMinutes int     `json:"elapsed_minutes"`
	WorkedMinutes  int     `json:"worked_minutes"`
	IsLate         bool    `json:"is_late"`
}

type LiveBoardResponse struct {
	OrgID   string      `json:"org_id"`
	Date    string      `json:"date"`
	Working int         `json:"working"`
	OnBreak int         `json:"on_break"`
	Idle    int         `json:"idle"`
	Entries []LiveEntry `json:"entries"`
}
