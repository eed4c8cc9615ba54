package timesheet

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
)

// ========================================
// TIMESHEET REQUESTS
// ========================================

type WeekRequest struct {
	UserID    string `json:"-"`
	OrgID     string `json:"-"`
	WeekStart string `json:"week_start"` // any date inside the week, YYYY-MM-DD
}

func (r *WeekRequest) Validate() error {
	var errs validator.ValidationErrors
	errs = r.validate(errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *WeekRequest) validate(errs validator.ValidationErrors) validator.ValidationErrors {
	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}
	if validator.IsEmpty(r.OrgID) {
		errs = append(errs, validator.ValidationError{
			Field:   "org_id",
			Message: "org_id is required",
		})
	}
	if _, ok := validator.IsValidDate(r.WeekStart); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "week_start",
			Message: "week_start must be in YYYY-MM-DD format",
		})
	}
	return errs
}

type UpsertCellRequest struct {
	WeekRequest
	ActivityCode string `json:"activity_code"`
	Date         string `json:"date"`
	Minutes      int    `json:"minutes"`
	Location     string `json:"location"`
}

func (r *UpsertCellRequest) Validate() error {
	errs := r.WeekRequest.validate(nil)

	r.ActivityCode = strings.TrimSpace(r.ActivityCode)
	if r.ActivityCode == "" {
		errs = append(errs, validator.ValidationError{
			Field:   "activity_code",
			Message: "activity_code is required",
		})
	} else if !validator.IsValidActivityCode(r.ActivityCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "activity_code",
			Message: "activity_code must be 1-32 upper-case letters, digits, '-' or '_'",
		})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if r.Minutes < 0 || r.Minutes > 24*60 {
		errs = append(errs, validator.ValidationError{
			Field:   "minutes",
			Message: "minutes must be between 0 and 1440",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RemoveCellRequest struct {
	WeekRequest
	ActivityCode string `json:"activity_code"`
	Date         string `json:"date"`
}

func (r *RemoveCellRequest) Validate() error {
	errs := r.WeekRequest.validate(nil)
	if validator.IsEmpty(r.ActivityCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "activity_code",
			Message: "activity_code is required",
		})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RemoveActivityRequest struct {
	WeekRequest
	ActivityCode string `json:"activity_code"`
}

func (r *RemoveActivityRequest) Validate() error {
	errs := r.WeekRequest.validate(nil)
	if validator.IsEmpty(r.ActivityCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "activity_code",
			Message: "activity_code is required",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SendDayRequest struct {
	WeekRequest
	Date          string  `json:"date"`
	DeficitReason *string `json:"deficit_reason,omitempty"`
}

func (r *SendDayRequest) Validate() error {
	errs := r.WeekRequest.validate(nil)
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if r.DeficitReason != nil && !validator.MaxLength(*r.DeficitReason, 500) {
		errs = append(errs, validator.ValidationError{
			Field:   "deficit_reason",
			Message: "deficit_reason must be at most 500 characters",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type OverrideRequest struct {
	WeekRequest
	Date string `json:"date"`
}

func (r *OverrideRequest) Validate() error {
	errs := r.WeekRequest.validate(nil)
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// TIMESHEET RESPONSE
// ========================================

type WeekResponse struct {
	ID                 string                          `json:"id"`
	UserID             string                          `json:"user_id"`
	WeekStart          string                          `json:"week_start"`
	Cells              map[string]map[string]CellEntry `json:"cells"`
	DayTotals          map[string]int                  `json:"day_totals"`
	WeekTotalMinutes   int                             `json:"week_total_minutes"`
	Status             Status                          `json:"status"`
	SubmittedAt        *string                         `json:"submitted_at,omitempty"`
	WeekendOverrides   []string                        `json:"weekend_overrides"`
	MissingReasonDates []string                        `json:"missing_reason_dates,omitempty"`
}
