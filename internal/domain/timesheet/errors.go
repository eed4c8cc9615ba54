package timesheet

import "errors"

var (
	ErrWeekendNotAllowed     = errors.New("timesheet entries are not allowed on weekends without an override")
	ErrWeekNotFound          = errors.New("timesheet week not found")
	ErrActivityNotFound      = errors.New("activity code not found in timesheet")
	ErrCellNotFound          = errors.New("timesheet cell not found")
	ErrDateOutsideWeek       = errors.New("date is outside the timesheet week")
	ErrDeficitReasonRequired = errors.New("a deficit reason is required when the day is below the daily minimum")
	ErrWeekLocked            = errors.New("timesheet week is approved and can no longer be edited")
	ErrWeekNotSubmitted      = errors.New("only submitted timesheet weeks can be approved")
)
