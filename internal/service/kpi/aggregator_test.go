package kpi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jakarta, _ = time.LoadLocation("Asia/Jakarta")

func testOrg() organization.Organization {
	return organization.Organization{
		ID:                   "org-1",
		Name:                 "Acme",
		Timezone:             "Asia/Jakarta",
		WorkdayHours:         8,
		LatenessGraceMinutes: 5,
		DayStartHour:         9,
		DayStartMinute:       0,
	}
}

func strPtr(s string) *string { return &s }

func testMembers() []organization.Member {
	return []organization.Member{
		{UserID: "u1", OrgID: "org-1", TeamID: strPtr("eng"), Name: "Ayu"},
		{UserID: "u2", OrgID: "org-1", Name: "Budi"},
	}
}

// local builds an instant on a day of March 2024 in Jakarta.
func local(day, h, m int) time.Time {
	return time.Date(2024, 3, day, h, m, 0, 0, jakarta).UTC()
}

func event(userID string, typ punch.Type, ts time.Time) punch.Event {
	return punch.Event{ID: userID + ts.String() + string(typ), UserID: userID, OrgID: "org-1", Type: typ, Timestamp: ts}
}

// weekEvents covers Monday 2024-03-04 to Sunday 2024-03-10.
func weekEvents() []punch.Event {
	return []punch.Event{
		// u1: on time Monday, late with overtime Tuesday, weekend work Saturday.
		event("u1", punch.TypeIn, local(4, 9, 0)),
		event("u1", punch.TypeOut, local(4, 17, 0)),
		event("u1", punch.TypeIn, local(5, 9, 7)),
		event("u1", punch.TypeOut, local(5, 18, 7)),
		event("u1", punch.TypeIn, local(9, 8, 0)),
		event("u1", punch.TypeOut, local(9, 10, 0)),
		// u9 is not on the roster.
		event("u9", punch.TypeIn, local(4, 9, 0)),
		event("u9", punch.TypeOut, local(4, 13, 0)),
	}
}

func accumulateWeek(t *testing.T, org organization.Organization) []kpi.DailyAccumulator {
	t.Helper()
	agg, err := NewAggregator(org, 2)
	require.NoError(t, err)

	accs, err := agg.Accumulate(context.Background(), weekEvents(), testMembers(),
		time.Date(2024, 3, 4, 0, 0, 0, 0, jakarta), time.Date(2024, 3, 10, 0, 0, 0, 0, jakarta))
	require.NoError(t, err)
	return accs
}

func TestNewAggregator_InvalidTimezone(t *testing.T) {
	org := testOrg()
	org.Timezone = "Mars/Olympus"

	_, err := NewAggregator(org, 1)
	assert.True(t, errors.Is(err, calendar.ErrMalformedInput))
}

func TestAccumulate_EnumeratesEveryUserDay(t *testing.T) {
	accs := accumulateWeek(t, testOrg())

	require.Len(t, accs, 21)
	assert.Equal(t, "u1", accs[0].UserID)
	assert.Equal(t, "2024-03-04", accs[0].Date)
	assert.Equal(t, "u9", accs[20].UserID)
	assert.Equal(t, "2024-03-10", accs[20].Date)

	byKey := map[string]kpi.DailyAccumulator{}
	for _, acc := range accs {
		byKey[acc.UserID+" "+acc.Date] = acc
	}

	mon := byKey["u1 2024-03-04"]
	assert.Equal(t, 480, mon.WorkedMinutes)
	assert.Equal(t, 480, mon.ExpectedMinutes)
	assert.True(t, mon.IsOnTime)
	assert.Equal(t, "eng", mon.TeamID)

	tue := byKey["u1 2024-03-05"]
	assert.Equal(t, 540, tue.WorkedMinutes)
	assert.False(t, tue.IsOnTime)
	assert.Equal(t, 7, tue.LateMinutes)

	sat := byKey["u1 2024-03-09"]
	assert.Equal(t, 0, sat.ExpectedMinutes)
	assert.Equal(t, 120, sat.WorkedMinutes)

	assert.True(t, byKey["u2 2024-03-06"].IsAbsent())
	assert.False(t, byKey["u2 2024-03-10"].IsAbsent(), "sunday is not an absence")
	assert.Equal(t, kpi.UnassignedTeam, byKey["u2 2024-03-04"].TeamID)
	assert.Equal(t, kpi.UnassignedTeam, byKey["u9 2024-03-04"].TeamID)
}

func TestAccumulate_HolidayHasNoExpectedMinutes(t *testing.T) {
	org := testOrg()
	org.Holidays = []string{"2024-03-08"}

	for _, acc := range accumulateWeek(t, org) {
		if acc.Date == "2024-03-08" {
			assert.Equal(t, 0, acc.ExpectedMinutes)
			assert.False(t, acc.IsAbsent())
		}
	}
}

func TestAccumulate_CancelledContext(t *testing.T) {
	agg, err := NewAggregator(testOrg(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = agg.Accumulate(ctx, weekEvents(), testMembers(),
		time.Date(2024, 3, 4, 0, 0, 0, 0, jakarta), time.Date(2024, 3, 10, 0, 0, 0, 0, jakarta))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFoldAndSnapshot(t *testing.T) {
	totals := Fold(accumulateWeek(t, testOrg()))

	assert.Equal(t, kpi.Totals{
		CountedDays:   4,
		OnTimeDays:    3,
		LateCount:     1,
		Absences:      12,
		WorkedMinutes: 1380,
		OvertimeMins:  180,
		ExpectedDays:  15,
		BadgeDays:     3,
	}, totals)

	snap := totals.Snapshot()
	assert.Equal(t, 75.0, snap.OnTimeRate)
	assert.Equal(t, 5.8, snap.AvgHoursPerDay)
	assert.Equal(t, 3.0, snap.OvertimeHours)
	assert.Equal(t, 20.0, snap.BadgeCompliance)
	assert.Equal(t, 1, snap.LateCount)
	assert.Equal(t, 12, snap.Absences)
}

func TestSnapshot_ZeroDenominators(t *testing.T) {
	assert.Equal(t, kpi.Snapshot{}, Fold(nil).Snapshot())

	onlyAbsent := Fold([]kpi.DailyAccumulator{{UserID: "u1", Date: "2024-03-04", ExpectedMinutes: 480}})
	snap := onlyAbsent.Snapshot()
	assert.Equal(t, 0.0, snap.OnTimeRate)
	assert.Equal(t, 0.0, snap.AvgHoursPerDay)
	assert.Equal(t, 1, snap.Absences)
}

func TestByTeam(t *testing.T) {
	accs := accumulateWeek(t, testOrg())
	teams := ByTeam(accs)

	require.Len(t, teams, 2)
	assert.Equal(t, "eng", teams[0].TeamID)
	assert.Equal(t, 1, teams[0].Members)
	assert.Equal(t, 3, teams[0].Snapshot.CountedDays)
	assert.Equal(t, 66.7, teams[0].Snapshot.OnTimeRate)

	assert.Equal(t, kpi.UnassignedTeam, teams[1].TeamID)
	assert.Equal(t, 2, teams[1].Members)

	counted := 0
	for _, team := range teams {
		counted += team.Snapshot.CountedDays
	}
	assert.Equal(t, Fold(accs).CountedDays, counted)
}

func TestByDate(t *testing.T) {
	dates := ByDate(accumulateWeek(t, testOrg()))

	require.Len(t, dates, 7)
	assert.Equal(t, "2024-03-04", dates[0].Date)
	assert.Equal(t, 2, dates[0].Snapshot.CountedDays)
	assert.Equal(t, 1, dates[0].Snapshot.Absences)
	assert.Equal(t, "2024-03-10", dates[6].Date)
	assert.Equal(t, 0, dates[6].Snapshot.ExpectedDays)
}

func TestWeekly(t *testing.T) {
	agg, err := NewAggregator(testOrg(), 0)
	require.NoError(t, err)

	rows := agg.Weekly(accumulateWeek(t, testOrg()), map[string]bool{kpi.WeekKey("u1", "2024-03-04"): true})
	require.Len(t, rows, 3)

	u1 := rows[0]
	assert.Equal(t, "u1", u1.UserID)
	assert.Equal(t, "2024-03-04", u1.WeekStart)
	assert.Equal(t, 1140, u1.WorkedMinutes)
	assert.Equal(t, 2400, u1.ExpectedMinutes)
	assert.Equal(t, 0, u1.OvertimeMinutes)
	assert.Equal(t, 1, u1.LateDays)
	assert.Equal(t, 3, u1.Absences)
	assert.Equal(t, 19.0, u1.WorkedHours)
	assert.Equal(t, kpi.WeekStatusApproved, u1.Status)

	assert.Equal(t, kpi.WeekStatusPending, rows[1].Status)
}
