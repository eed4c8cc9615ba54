package organization

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
)

// Organization carries the attendance policy every boundary decision depends on.
type Organization struct {
	ID                   string
	Name                 string
	Timezone             string
	WorkdayHours         int
	LatenessGraceMinutes int
	DayStartHour         int
	DayStartMinute       int
	Holidays             []string // YYYY-MM-DD in the organization timezone
	DefaultGeofence      *punch.Geo
	DailyMinimumMinutes  int
	WeeklyMinimumMinutes int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Location loads the organization timezone.
func (o Organization) Location() (*time.Location, error) {
	return calendar.LoadLocation(o.Timezone)
}

// IsHoliday reports whether the day key is a configured holiday.
func (o Organization) IsHoliday(dayKey string) bool {
	for _, h := range o.Holidays {
		if h == dayKey {
			return true
		}
	}
	return false
}

// ExpectedMinutes is zero on weekends and holidays, otherwise the full workday.
func (o Organization) ExpectedMinutes(day time.Time, loc *time.Location) int {
	if calendar.IsWeekend(day, loc) || o.IsHoliday(calendar.DayKey(day, loc)) {
		return 0
	}
	return o.WorkdayHours * 60
}

// Member is a user of an organization, optionally assigned to a team.
type Member struct {
	UserID string
	OrgID  string
	TeamID *string
	Name   string
}
