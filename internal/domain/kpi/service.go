package kpi

import "context"

// KPIService exposes attendance rollups over stored punch events.
type KPIService interface {
	GetSnapshot(ctx context.Context, req RangeRequest) (SnapshotResponse, error)
	GetTeamBreakdown(ctx context.Context, req RangeRequest) ([]TeamBreakdown, error)
	GetDateBreakdown(ctx context.Context, req RangeRequest) ([]DateBreakdown, error)
	GetWeeklyRows(ctx context.Context, req RangeRequest) ([]WeeklyRow, error)
	GetLiveBoard(ctx context.Context, orgID string) (LiveBoardResponse, error)

	// RecordDailySnapshot computes and stores one organization's snapshot for a day.
	RecordDailySnapshot(ctx context.Context, orgID string, date string) (StoredSnapshot, error)
}
