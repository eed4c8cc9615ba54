package kpi

import "context"

// SnapshotRepository persists daily organization snapshots.
type SnapshotRepository interface {
	// Upsert stores the snapshot for (org, date), replacing an existing one.
	Upsert(ctx context.Context, snapshot StoredSnapshot) error
	Get(ctx context.Context, orgID string, date string) (StoredSnapshot, error)
}

// WeekApprovalSource reports which user-weeks are approved.
type WeekApprovalSource interface {
	// ApprovedWeeks returns keys "userID|YYYY-MM-DD" (ISO week start) of approved weeks.
	ApprovedWeeks(ctx context.Context, orgID string, fromWeek, toWeek string) (map[string]bool, error)
}
