package kpi

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnassignedTeam is the team key of members without a team.
const UnassignedTeam = "unassigned"

// DailyAccumulator is the folded result of one user's day.
type DailyAccumulator struct {
	UserID          string
	TeamID          string
	Date            string // YYYY-MM-DD, organization timezone
	WorkedMinutes   int
	ExpectedMinutes int
	IsOnTime        bool
	LateMinutes     int
	HasEvents       bool
	Anomalies       int
	OpenSession     *time.Time
}

// IsAbsent reports whether the day counts as an absence.
func (d DailyAccumulator) IsAbsent() bool {
	return d.WorkedMinutes == 0 && d.ExpectedMinutes > 0
}

// IsCounted reports whether the day counts toward rates and averages.
func (d DailyAccumulator) IsCounted() bool {
	return d.WorkedMinutes > 0
}

// Totals is the integer fold of a set of accumulators.
type Totals struct {
	CountedDays   int
	OnTimeDays    int
	LateCount     int
	Absences      int
	WorkedMinutes int
	OvertimeMins  int
	ExpectedDays  int
	BadgeDays     int
}

// Snapshot presents the totals. Rates are percentages and every value is
// rounded to one decimal. A zero denominator yields 0.
func (t Totals) Snapshot() Snapshot {
	return Snapshot{
		OnTimeRate:      percent(t.OnTimeDays, t.CountedDays),
		AvgHoursPerDay:  ratio(t.WorkedMinutes, t.CountedDays*60),
		LateCount:       t.LateCount,
		Absences:        t.Absences,
		OvertimeHours:   ratio(t.OvertimeMins, 60),
		BadgeCompliance: percent(t.BadgeDays, t.ExpectedDays),
		CountedDays:     t.CountedDays,
		ExpectedDays:    t.ExpectedDays,
	}
}

// Add merges other into t.
func (t Totals) Add(other Totals) Totals {
	return Totals{
		CountedDays:   t.CountedDays + other.CountedDays,
		OnTimeDays:    t.OnTimeDays + other.OnTimeDays,
		LateCount:     t.LateCount + other.LateCount,
		Absences:      t.Absences + other.Absences,
		WorkedMinutes: t.WorkedMinutes + other.WorkedMinutes,
		OvertimeMins:  t.OvertimeMins + other.OvertimeMins,
		ExpectedDays:  t.ExpectedDays + other.ExpectedDays,
		BadgeDays:     t.BadgeDays + other.BadgeDays,
	}
}

// MinutesToHours converts minutes to hours rounded to one decimal.
func MinutesToHours(minutes int) float64 {
	return ratio(minutes, 60)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(num)).
		Div(decimal.NewFromInt(int64(den))).
		Round(1).
		InexactFloat64()
}

func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(num)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(den))).
		Round(1).
		InexactFloat64()
}

// StoredSnapshot is a persisted daily organization snapshot.
type StoredSnapshot struct {
	OrgID     string
	Date      string
	Snapshot  Snapshot
	CreatedAt time.Time
}

// WeekKey identifies one user's ISO week in approval lookups.
func WeekKey(userID string, weekStart string) string {
	return userID + "|" + weekStart
}
