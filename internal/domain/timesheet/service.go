package timesheet

import "context"

// TimesheetService edits a user's weekly timesheet through the cell ledger.
type TimesheetService interface {
	GetWeek(ctx context.Context, req WeekRequest) (WeekResponse, error)
	UpsertCell(ctx context.Context, req UpsertCellRequest) (WeekResponse, error)
	RemoveCell(ctx context.Context, req RemoveCellRequest) (WeekResponse, error)
	RemoveActivityCode(ctx context.Context, req RemoveActivityRequest) (WeekResponse, error)
	SendDay(ctx context.Context, req SendDayRequest) (WeekResponse, error)
	AutoSendWeek(ctx context.Context, req WeekRequest) (WeekResponse, error)
	AddWeekendOverride(ctx context.Context, req OverrideRequest) (WeekResponse, error)
	ApproveWeek(ctx context.Context, req WeekRequest) (WeekResponse, error)

	// AutoSendDueWeeks auto-sends every draft week of the organization that started before the current week.
	// It returns how many weeks left draft.
	AutoSendDueWeeks(ctx context.Context, orgID string) (int, error)
}
