package kpi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/session"
	"golang.org/x/sync/errgroup"
)

// Aggregator folds punch events of one organization into daily accumulators.
type Aggregator struct {
	org     organization.Organization
	loc     *time.Location
	workers int
}

// NewAggregator loads the organization timezone once. workers bounds the
// per-user fan-out; zero or less means unbounded.
func NewAggregator(org organization.Organization, workers int) (*Aggregator, error) {
	loc, err := org.Location()
	if err != nil {
		return nil, fmt.Errorf("organization %s: %w", org.ID, err)
	}
	return &Aggregator{org: org, loc: loc, workers: workers}, nil
}

// Location returns the organization timezone.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// SessionOptions returns the reconstructor options of the organization.
func (a *Aggregator) SessionOptions() session.Options {
	return session.OptionsFor(a.org, a.loc)
}

type userDays struct {
	userID string
	teamID string
	days   map[string][]punch.Event
}

// Accumulate builds one accumulator per user and day in [from, to]. Every
// roster member gets every day, so days without events show up as absences
// or days off. Users with events but no membership fall under the unassigned
// team. The result is ordered by user, then date.
func (a *Aggregator) Accumulate(ctx context.Context, events []punch.Event, members []organization.Member, from, to time.Time) ([]kpi.DailyAccumulator, error) {
	days := calendar.DaysBetween(from, to, a.loc)
	if len(days) == 0 {
		return nil, nil
	}
	inRange := make(map[string]bool, len(days))
	for _, d := range days {
		inRange[d] = true
	}

	users := make([]*userDays, 0, len(members))
	byUser := make(map[string]*userDays, len(members))
	for _, m := range members {
		if _, dup := byUser[m.UserID]; dup {
			continue
		}
		teamID := kpi.UnassignedTeam
		if m.TeamID != nil && *m.TeamID != "" {
			teamID = *m.TeamID
		}
		u := &userDays{userID: m.UserID, teamID: teamID, days: make(map[string][]punch.Event)}
		byUser[m.UserID] = u
		users = append(users, u)
	}

	var strangers []*userDays
	for _, ev := range events {
		key := calendar.DayKey(ev.Timestamp, a.loc)
		if !inRange[key] {
			continue
		}
		u, ok := byUser[ev.UserID]
		if !ok {
			u = &userDays{userID: ev.UserID, teamID: kpi.UnassignedTeam, days: make(map[string][]punch.Event)}
			byUser[ev.UserID] = u
			strangers = append(strangers, u)
		}
		u.days[key] = append(u.days[key], ev)
	}
	sort.Slice(strangers, func(i, j int) bool { return strangers[i].userID < strangers[j].userID })
	users = append(users, strangers...)
	sort.SliceStable(users, func(i, j int) bool { return users[i].userID < users[j].userID })

	results := make([][]kpi.DailyAccumulator, len(users))
	opts := a.SessionOptions()

	g, gCtx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for i, u := range users {
		i, u := i, u
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			accs := make([]kpi.DailyAccumulator, 0, len(days))
			for _, day := range days {
				accs = append(accs, a.accumulateDay(u, day, opts))
			}
			results[i] = accs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]kpi.DailyAccumulator, 0, len(users)*len(days))
	for _, accs := range results {
		out = append(out, accs...)
	}
	return out, nil
}

func (a *Aggregator) accumulateDay(u *userDays, day string, opts session.Options) kpi.DailyAccumulator {
	date, _ := calendar.ParseDate(day, a.loc)
	evs := u.days[day]
	res := session.Reconstruct(evs, opts)

	acc := kpi.DailyAccumulator{
		UserID:          u.userID,
		TeamID:          u.teamID,
		Date:            day,
		WorkedMinutes:   res.WorkedMinutes,
		ExpectedMinutes: a.org.ExpectedMinutes(date, a.loc),
		IsOnTime:        !res.IsLate,
		LateMinutes:     res.LateMinutes,
		HasEvents:       len(evs) > 0,
		Anomalies:       len(res.Anomalies),
	}
	if res.OpenSession != nil {
		start := res.OpenSession.Start
		acc.OpenSession = &start
	}
	return acc
}

// Fold reduces accumulators to integer totals.
func Fold(accs []kpi.DailyAccumulator) kpi.Totals {
	var t kpi.Totals
	for _, acc := range accs {
		if acc.ExpectedMinutes > 0 {
			t.ExpectedDays++
			if acc.HasEvents {
				t.BadgeDays++
			}
		}
		if acc.IsAbsent() {
			t.Absences++
			continue
		}
		if !acc.IsCounted() {
			continue
		}
		t.CountedDays++
		t.WorkedMinutes += acc.WorkedMinutes
		if acc.IsOnTime {
			t.OnTimeDays++
		} else {
			t.LateCount++
		}
		if over := acc.WorkedMinutes - acc.ExpectedMinutes; over > 0 {
			t.OvertimeMins += over
		}
	}
	return t
}

// ByTeam folds accumulators per team, sorted by team key.
func ByTeam(accs []kpi.DailyAccumulator) []kpi.TeamBreakdown {
	groups := make(map[string][]kpi.DailyAccumulator)
	members := make(map[string]map[string]struct{})
	for _, acc := range accs {
		team := acc.TeamID
		if team == "" {
			team = kpi.UnassignedTeam
		}
		groups[team] = append(groups[team], acc)
		if members[team] == nil {
			members[team] = make(map[string]struct{})
		}
		members[team][acc.UserID] = struct{}{}
	}

	out := make([]kpi.TeamBreakdown, 0, len(groups))
	for team, group := range groups {
		out = append(out, kpi.TeamBreakdown{
			TeamID:   team,
			Members:  len(members[team]),
			Snapshot: Fold(group).Snapshot(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// ByDate folds accumulators per calendar date, sorted by date.
func ByDate(accs []kpi.DailyAccumulator) []kpi.DateBreakdown {
	groups := make(map[string][]kpi.DailyAccumulator)
	for _, acc := range accs {
		groups[acc.Date] = append(groups[acc.Date], acc)
	}

	out := make([]kpi.DateBreakdown, 0, len(groups))
	for date, group := range groups {
		out = append(out, kpi.DateBreakdown{
			Date:     date,
			Snapshot: Fold(group).Snapshot(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Weekly groups accumulators into one row per user and ISO week. approved
// holds kpi.WeekKey values of approved weeks.
func (a *Aggregator) Weekly(accs []kpi.DailyAccumulator, approved map[string]bool) []kpi.WeeklyRow {
	rows := make(map[string]*kpi.WeeklyRow)
	var keys []string
	for _, acc := range accs {
		date, err := calendar.ParseDate(acc.Date, a.loc)
		if err != nil {
			continue
		}
		weekStart := calendar.WeekStart(date, a.loc).Format(calendar.DateLayout)
		key := kpi.WeekKey(acc.UserID, weekStart)
		row, ok := rows[key]
		if !ok {
			row = &kpi.WeeklyRow{UserID: acc.UserID, WeekStart: weekStart, Status: kpi.WeekStatusPending}
			if approved[key] {
				row.Status = kpi.WeekStatusApproved
			}
			rows[key] = row
			keys = append(keys, key)
		}
		row.WorkedMinutes += acc.WorkedMinutes
		row.ExpectedMinutes += acc.ExpectedMinutes
		if acc.IsAbsent() {
			row.Absences++
		}
		if acc.IsCounted() && !acc.IsOnTime {
			row.LateDays++
		}
	}

	out := make([]kpi.WeeklyRow, 0, len(keys))
	for _, key := range keys {
		row := rows[key]
		if over := row.WorkedMinutes - row.ExpectedMinutes; over > 0 {
			row.OvertimeMinutes = over
		}
		row.WorkedHours = kpi.MinutesToHours(row.WorkedMinutes)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].WeekStart < out[j].WeekStart
	})
	return out
}
