package timesheet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
)

// Rules are the organization policies a ledger enforces.
type Rules struct {
	Location             *time.Location
	DailyMinimumMinutes  int
	WeeklyMinimumMinutes int
	Now                  func() time.Time
}

// Ledger applies cell edits to one week. The week total is recomputed from
// the cells after every mutation.
type Ledger struct {
	week  *timesheet.Week
	rules Rules
	days  []string
}

// NewLedger wraps week. The week start must be a valid date; it is the first
// of the seven days the ledger accepts.
func NewLedger(week *timesheet.Week, rules Rules) (*Ledger, error) {
	if rules.Location == nil {
		return nil, errors.New("timesheet ledger: rules location is required")
	}
	if rules.Now == nil {
		rules.Now = time.Now
	}
	start, err := calendar.ParseDate(week.WeekStart, rules.Location)
	if err != nil {
		return nil, err
	}
	if week.Cells == nil {
		week.Cells = make(map[string]map[string]timesheet.CellEntry)
	}
	l := &Ledger{
		week:  week,
		rules: rules,
		days:  calendar.WeekDays(start, rules.Location),
	}
	l.recompute()
	return l, nil
}

// Week returns the ledger's week.
func (l *Ledger) Week() *timesheet.Week {
	return l.week
}

// Days returns the seven day keys of the week.
func (l *Ledger) Days() []string {
	return l.days
}

// UpsertCell writes one cell. Any edit clears its sent flag and deficit reason.
func (l *Ledger) UpsertCell(code, date string, entry timesheet.CellEntry) error {
	if err := l.checkEditable(); err != nil {
		return err
	}
	if err := l.checkDate(date); err != nil {
		return err
	}
	if l.isWeekend(date) && !slices.Contains(l.week.WeekendOverrides, date) {
		return fmt.Errorf("%w: %s", timesheet.ErrWeekendNotAllowed, date)
	}

	entry.Sent = false
	entry.DeficitReason = nil
	if l.week.Cells[code] == nil {
		l.week.Cells[code] = make(map[string]timesheet.CellEntry)
	}
	l.week.Cells[code][date] = entry

	l.reopen()
	l.recompute()
	return nil
}

// RemoveCell deletes one cell.
func (l *Ledger) RemoveCell(code, date string) error {
	if err := l.checkEditable(); err != nil {
		return err
	}
	days, ok := l.week.Cells[code]
	if !ok {
		return fmt.Errorf("%w: %s", timesheet.ErrActivityNotFound, code)
	}
	if _, ok := days[date]; !ok {
		return fmt.Errorf("%w: %s on %s", timesheet.ErrCellNotFound, code, date)
	}

	delete(days, date)
	if len(days) == 0 {
		delete(l.week.Cells, code)
	}

	l.reopen()
	l.recompute()
	return nil
}

// RemoveActivityCode deletes every cell of an activity code.
func (l *Ledger) RemoveActivityCode(code string) error {
	if err := l.checkEditable(); err != nil {
		return err
	}
	if _, ok := l.week.Cells[code]; !ok {
		return fmt.Errorf("%w: %s", timesheet.ErrActivityNotFound, code)
	}

	delete(l.week.Cells, code)

	l.reopen()
	l.recompute()
	return nil
}

// SendDay marks every cell of date as sent. A day below the daily minimum
// needs a deficit reason, which is attached to each of its cells. The week is
// submitted once it meets the weekly minimum with every cell sent.
func (l *Ledger) SendDay(date string, deficitReason *string) error {
	if err := l.checkEditable(); err != nil {
		return err
	}
	if err := l.checkDate(date); err != nil {
		return err
	}

	var reason *string
	if deficitReason != nil {
		if trimmed := strings.TrimSpace(*deficitReason); trimmed != "" {
			reason = &trimmed
		}
	}

	deficit := l.DayTotal(date) < l.rules.DailyMinimumMinutes
	if deficit && reason == nil {
		return fmt.Errorf("%w: %s", timesheet.ErrDeficitReasonRequired, date)
	}

	for _, days := range l.week.Cells {
		entry, ok := days[date]
		if !ok {
			continue
		}
		entry.Sent = true
		if deficit {
			r := *reason
			entry.DeficitReason = &r
		}
		days[date] = entry
	}
	l.week.MissingReasonDates = slices.DeleteFunc(l.week.MissingReasonDates, func(d string) bool { return d == date })

	l.recompute()
	if l.submittable() {
		l.submit()
	}
	return nil
}

// AutoSendWeek sends every unsent day that either meets the daily minimum,
// carries a reason on each cell, or has no minutes at all. Other days are
// recorded as missing a reason and the week then requires attention. The week
// is submitted under the same rule as SendDay; otherwise it stays a draft.
func (l *Ledger) AutoSendWeek() error {
	if err := l.checkEditable(); err != nil {
		return err
	}

	var missing []string
	for _, date := range l.days {
		if !l.dayHasCells(date) || l.daySent(date) {
			continue
		}
		total := l.DayTotal(date)
		if total == 0 || total >= l.rules.DailyMinimumMinutes || l.dayHasReasons(date) {
			l.markDaySent(date)
			continue
		}
		missing = append(missing, date)
	}

	l.week.MissingReasonDates = missing
	l.recompute()
	switch {
	case len(missing) > 0:
		l.week.Status = timesheet.StatusAttentionRequired
		l.week.SubmittedAt = nil
	case !l.submittable():
		l.week.Status = timesheet.StatusDraft
		l.week.SubmittedAt = nil
	case l.week.Status != timesheet.StatusSubmitted:
		l.submit()
	}
	return nil
}

// AddWeekendOverride allows cell writes on a weekend date of the week.
func (l *Ledger) AddWeekendOverride(date string) error {
	if err := l.checkEditable(); err != nil {
		return err
	}
	if err := l.checkDate(date); err != nil {
		return err
	}
	if !slices.Contains(l.week.WeekendOverrides, date) {
		l.week.WeekendOverrides = append(l.week.WeekendOverrides, date)
		slices.Sort(l.week.WeekendOverrides)
	}
	return nil
}

// Approve locks a submitted week.
func (l *Ledger) Approve() error {
	switch l.week.Status {
	case timesheet.StatusApproved:
		return timesheet.ErrWeekLocked
	case timesheet.StatusSubmitted:
		l.week.Status = timesheet.StatusApproved
		return nil
	}
	return timesheet.ErrWeekNotSubmitted
}

// DayTotal sums the minutes of every cell on date.
func (l *Ledger) DayTotal(date string) int {
	total := 0
	for _, days := range l.week.Cells {
		total += days[date].Minutes
	}
	return total
}

// DayTotals returns the total of each day of the week.
func (l *Ledger) DayTotals() map[string]int {
	totals := make(map[string]int, len(l.days))
	for _, d := range l.days {
		totals[d] = l.DayTotal(d)
	}
	return totals
}

func (l *Ledger) recompute() {
	total := 0
	for _, days := range l.week.Cells {
		for _, entry := range days {
			total += entry.Minutes
		}
	}
	l.week.TotalMinutes = total
}

// reopen moves a sent week back to draft after an edit.
func (l *Ledger) reopen() {
	if l.week.Status == timesheet.StatusSubmitted || l.week.Status == timesheet.StatusAttentionRequired {
		l.week.Status = timesheet.StatusDraft
		l.week.SubmittedAt = nil
	}
}

func (l *Ledger) submit() {
	now := l.rules.Now().UTC()
	l.week.Status = timesheet.StatusSubmitted
	l.week.SubmittedAt = &now
	l.week.MissingReasonDates = nil
}

// submittable reports whether the week has cells, all of them sent, and meets
// the weekly minimum.
func (l *Ledger) submittable() bool {
	return l.cellCount() > 0 && l.allSent() && l.week.TotalMinutes >= l.rules.WeeklyMinimumMinutes
}

func (l *Ledger) markDaySent(date string) {
	for _, days := range l.week.Cells {
		if entry, ok := days[date]; ok {
			entry.Sent = true
			days[date] = entry
		}
	}
}

func (l *Ledger) dayHasCells(date string) bool {
	for _, days := range l.week.Cells {
		if _, ok := days[date]; ok {
			return true
		}
	}
	return false
}

func (l *Ledger) checkEditable() error {
	if l.week.Status == timesheet.StatusApproved {
		return timesheet.ErrWeekLocked
	}
	return nil
}

func (l *Ledger) checkDate(date string) error {
	if !slices.Contains(l.days, date) {
		return fmt.Errorf("%w: %s is not in the week of %s", timesheet.ErrDateOutsideWeek, date, l.week.WeekStart)
	}
	return nil
}

func (l *Ledger) isWeekend(date string) bool {
	d, err := calendar.ParseDate(date, l.rules.Location)
	if err != nil {
		return false
	}
	return calendar.IsWeekend(d, l.rules.Location)
}

func (l *Ledger) cellCount() int {
	n := 0
	for _, days := range l.week.Cells {
		n += len(days)
	}
	return n
}

func (l *Ledger) allSent() bool {
	for _, days := range l.week.Cells {
		for _, entry := range days {
			if !entry.Sent {
				return false
			}
		}
	}
	return true
}

func (l *Ledger) daySent(date string) bool {
	for _, days := range l.week.Cells {
		if entry, ok := days[date]; ok && !entry.Sent {
			return false
		}
	}
	return true
}

func (l *Ledger) dayHasReasons(date string) bool {
	found := false
	for _, days := range l.week.Cells {
		entry, ok := days[date]
		if !ok {
			continue
		}
		if entry.DeficitReason == nil || *entry.DeficitReason == "" {
			return false
		}
		found = true
	}
	return found
}
