package timesheet

import "context"

// WeekRepository persists timesheet weeks with their cells.
type WeekRepository interface {
	// Get returns the week or ErrWeekNotFound.
	Get(ctx context.Context, userID string, weekStart string) (*Week, error)

	// Save inserts or replaces the week.
	Save(ctx context.Context, week *Week) error

	// ListByStatus returns weeks of an organization in the given status starting before the given week.
	ListByStatus(ctx context.Context, orgID string, status Status, beforeWeek string) ([]*Week, error)

	// ListApproved returns approved weeks of an organization between two week starts inclusive.
	ListApproved(ctx context.Context, orgID string, fromWeek, toWeek string) ([]*Week, error)
}
