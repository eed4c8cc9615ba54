package kpi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type approvalsFunc func(ctx context.Context, orgID, fromWeek, toWeek string) (map[string]bool, error)

func (f approvalsFunc) ApprovedWeeks(ctx context.Context, orgID, fromWeek, toWeek string) (map[string]bool, error) {
	return f(ctx, orgID, fromWeek, toWeek)
}

func newTestService(t *testing.T, now time.Time, events []punch.Event, opts ...Option) (kpi.KPIService, kpi.SnapshotRepository) {
	t.Helper()
	store := memory.NewStore()
	store.PutOrganization(testOrg())
	for _, m := range testMembers() {
		store.PutMember(m)
	}

	eventRepo := memory.NewEventRepository(store)
	for _, ev := range events {
		_, err := eventRepo.Append(context.Background(), ev)
		require.NoError(t, err)
	}

	snapshots := memory.NewSnapshotRepository(store)
	opts = append([]Option{WithClock(func() time.Time { return now }), WithWorkers(2)}, opts...)
	svc := NewKPIService(
		memory.NewOrganizationRepository(store),
		memory.NewMemberRepository(store),
		eventRepo,
		snapshots,
		opts...,
	)
	return svc, snapshots
}

func weekRange() kpi.RangeRequest {
	return kpi.RangeRequest{OrgID: "org-1", From: "2024-03-04", To: "2024-03-10"}
}

func TestKPIService_GetSnapshot(t *testing.T) {
	svc, _ := newTestService(t, local(11, 12, 0), weekEvents())

	resp, err := svc.GetSnapshot(context.Background(), weekRange())
	require.NoError(t, err)

	assert.Equal(t, "org-1", resp.OrgID)
	assert.Equal(t, 4, resp.Snapshot.CountedDays)
	assert.Equal(t, 75.0, resp.Snapshot.OnTimeRate)
	assert.Equal(t, 12, resp.Snapshot.Absences)
}

func TestKPIService_IgnoresEventsOutsideRange(t *testing.T) {
	events := append(weekEvents(),
		event("u2", punch.TypeIn, local(11, 9, 0)),
		event("u2", punch.TypeOut, local(11, 17, 0)),
	)
	svc, _ := newTestService(t, local(11, 18, 0), events)

	resp, err := svc.GetSnapshot(context.Background(), weekRange())
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Snapshot.CountedDays)
}

func TestKPIService_Errors(t *testing.T) {
	svc, _ := newTestService(t, local(11, 12, 0), nil)

	_, err := svc.GetSnapshot(context.Background(), kpi.RangeRequest{OrgID: "org-1", From: "2024-03-10", To: "2024-03-04"})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.GetTeamBreakdown(context.Background(), kpi.RangeRequest{OrgID: "nope", From: "2024-03-04", To: "2024-03-04"})
	assert.ErrorIs(t, err, organization.ErrOrganizationNotFound)
}

func TestKPIService_Breakdowns(t *testing.T) {
	svc, _ := newTestService(t, local(11, 12, 0), weekEvents())

	teams, err := svc.GetTeamBreakdown(context.Background(), weekRange())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "eng", teams[0].TeamID)

	dates, err := svc.GetDateBreakdown(context.Background(), weekRange())
	require.NoError(t, err)
	assert.Len(t, dates, 7)
}

func TestKPIService_GetWeeklyRows(t *testing.T) {
	var gotFrom, gotTo string
	approvals := approvalsFunc(func(ctx context.Context, orgID, fromWeek, toWeek string) (map[string]bool, error) {
		gotFrom, gotTo = fromWeek, toWeek
		return map[string]bool{kpi.WeekKey("u2", "2024-03-04"): true}, nil
	})
	svc, _ := newTestService(t, local(11, 12, 0), weekEvents(), WithApprovals(approvals))

	rows, err := svc.GetWeeklyRows(context.Background(), weekRange())
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", gotFrom)
	assert.Equal(t, "2024-03-04", gotTo)
	require.Len(t, rows, 3)
	assert.Equal(t, kpi.WeekStatusPending, rows[0].Status)
	assert.Equal(t, kpi.WeekStatusApproved, rows[1].Status)
}

func TestKPIService_GetLiveBoard(t *testing.T) {
	events := []punch.Event{
		event("u1", punch.TypeIn, local(4, 9, 0)),
		event("u1", punch.TypeBreakStart, local(4, 10, 30)),
		event("u9", punch.TypeIn, local(4, 9, 20)),
	}
	svc, _ := newTestService(t, local(4, 11, 0), events)

	board, err := svc.GetLiveBoard(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", board.Date)
	assert.Equal(t, 1, board.Working)
	assert.Equal(t, 1, board.OnBreak)
	assert.Equal(t, 1, board.Idle)
	require.Len(t, board.Entries, 3)

	u1 := board.Entries[0]
	assert.Equal(t, "u1", u1.UserID)
	assert.Equal(t, string(punch.StateOnBreak), u1.State)
	assert.Equal(t, 90, u1.ElapsedMinutes)
	require.NotNil(t, u1.SessionStart)

	u9 := board.Entries[2]
	assert.Equal(t, string(punch.StateWorking), u9.State)
	assert.Equal(t, 100, u9.ElapsedMinutes)
	assert.True(t, u9.IsLate)
}

func TestKPIService_RecordDailySnapshot(t *testing.T) {
	now := local(5, 1, 0)
	svc, snapshots := newTestService(t, now, weekEvents())

	stored, err := svc.RecordDailySnapshot(context.Background(), "org-1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Snapshot.CountedDays)

	got, err := snapshots.Get(context.Background(), "org-1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, stored.Snapshot, got.Snapshot)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = snapshots.Get(context.Background(), "org-1", "2024-03-05")
	assert.ErrorIs(t, err, kpi.ErrSnapshotNotFound)
}
