package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	setup, err := NewTestDatabase(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)

	orgs := postgresql.NewOrganizationRepository(setup.DB)
	require.NoError(t, orgs.Upsert(ctx, organization.Organization{
		ID:                   "org-1",
		Name:                 "Acme",
		Timezone:             "Asia/Jakarta",
		WorkdayHours:         8,
		DayStartHour:         9,
		Holidays:             []string{"2024-03-11"},
		DefaultGeofence:      &punch.Geo{Lat: -6.2, Lng: 106.8, RadiusMeters: 100},
		DailyMinimumMinutes:  480,
		WeeklyMinimumMinutes: 2400,
	}))
	team := "eng"
	members := postgresql.NewMemberRepository(setup.DB)
	require.NoError(t, members.Upsert(ctx, organization.Member{UserID: "u1", OrgID: "org-1", TeamID: &team, Name: "Ayu"}))

	return setup
}

func TestOrganizationRepository(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()

	org, err := postgresql.NewOrganizationRepository(setup.DB).GetByID(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", org.Timezone)
	assert.Equal(t, []string{"2024-03-11"}, org.Holidays)
	require.NotNil(t, org.DefaultGeofence)
	assert.Equal(t, 100.0, org.DefaultGeofence.RadiusMeters)

	_, err = postgresql.NewOrganizationRepository(setup.DB).GetByID(ctx, "missing")
	assert.ErrorIs(t, err, organization.ErrOrganizationNotFound)

	member, err := postgresql.NewMemberRepository(setup.DB).GetByUserID(ctx, "org-1", "u1")
	require.NoError(t, err)
	require.NotNil(t, member.TeamID)
	assert.Equal(t, "eng", *member.TeamID)
}

func TestPunchEventRepository(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPunchEventRepository(setup.DB)
	base := time.Date(2024, 3, 4, 2, 0, 0, 0, time.UTC)

	_, err := repo.LatestByUser(ctx, "u1")
	assert.ErrorIs(t, err, punch.ErrEventNotFound)

	for i, typ := range []punch.Type{punch.TypeIn, punch.TypeBreakStart, punch.TypeBreakEnd, punch.TypeOut} {
		_, err := repo.Append(ctx, punch.Event{
			ID:        uuid.NewString(),
			UserID:    "u1",
			OrgID:     "org-1",
			Type:      typ,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	events, err := repo.ListByUserBetween(ctx, "u1", base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, time.UTC, events[0].Timestamp.Location())

	latest, err := repo.LatestByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, punch.TypeOut, latest.Type)

	locker := postgresql.NewUserLocker(setup.DB)
	err = locker.WithUserLock(ctx, "u1", func(ctx context.Context) error {
		_, err := repo.Append(ctx, punch.Event{ID: uuid.NewString(), UserID: "u1", OrgID: "org-1", Type: punch.TypeIn, Timestamp: base.Add(5 * time.Hour)})
		return err
	})
	require.NoError(t, err)

	events, err = repo.ListByOrgBetween(ctx, "org-1", base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestTimesheetWeekRepository(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewTimesheetWeekRepository(setup.DB)

	_, err := repo.Get(ctx, "u1", "2024-03-04")
	assert.ErrorIs(t, err, timesheet.ErrWeekNotFound)

	week := timesheet.NewWeek("u1", "org-1", "2024-03-04")
	reason := "doctor"
	week.Cells["DEV"] = map[string]timesheet.CellEntry{
		"2024-03-04": {Minutes: 300, Location: "office", Sent: true, DeficitReason: &reason},
	}
	week.TotalMinutes = 300
	require.NoError(t, repo.Save(ctx, week))
	assert.NotEmpty(t, week.ID)

	week.Status = timesheet.StatusApproved
	require.NoError(t, repo.Save(ctx, week))

	got, err := repo.Get(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, week.ID, got.ID)
	assert.Equal(t, timesheet.StatusApproved, got.Status)
	assert.Equal(t, "2024-03-04", got.WeekStart)
	require.NotNil(t, got.Cells["DEV"]["2024-03-04"].DeficitReason)
	assert.Equal(t, "doctor", *got.Cells["DEV"]["2024-03-04"].DeficitReason)

	approved, err := repo.ListApproved(ctx, "org-1", "2024-03-04", "2024-03-04")
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	drafts, err := repo.ListByStatus(ctx, "org-1", timesheet.StatusDraft, "2024-03-11")
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestKPISnapshotRepository(t *testing.T) {
	setup := setupTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewKPISnapshotRepository(setup.DB)

	_, err := repo.Get(ctx, "org-1", "2024-03-04")
	assert.ErrorIs(t, err, kpi.ErrSnapshotNotFound)

	stored := kpi.StoredSnapshot{
		OrgID:     "org-1",
		Date:      "2024-03-04",
		Snapshot:  kpi.Snapshot{OnTimeRate: 75, AvgHoursPerDay: 5.8},
		CreatedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, stored))
	stored.Snapshot.OnTimeRate = 80
	require.NoError(t, repo.Upsert(ctx, stored))

	got, err := repo.Get(ctx, "org-1", "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.Snapshot.OnTimeRate)
	assert.Equal(t, 5.8, got.Snapshot.AvgHoursPerDay)
}
