package session

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
)

// Options configures lateness evaluation and day bucketing.
type Options struct {
	Location       *time.Location
	DayStartHour   int
	DayStartMinute int
	GraceMinutes   int
}

// OptionsFor returns the options of an organization whose timezone is already loaded.
func OptionsFor(org organization.Organization, loc *time.Location) Options {
	return Options{
		Location:       loc,
		DayStartHour:   org.DayStartHour,
		DayStartMinute: org.DayStartMinute,
		GraceMinutes:   org.LatenessGraceMinutes,
	}
}

// location panics on a missing timezone. Every boundary is decided in the
// organization timezone, so there is no safe default.
func (o Options) location() *time.Location {
	if o.Location == nil {
		panic("session: Options.Location is required")
	}
	return o.Location
}

// WorkSession is one closed IN...OUT interval net of breaks.
type WorkSession struct {
	Start         time.Time
	End           time.Time
	BreakMinutes  int
	WorkedMinutes int
	IsLate        bool
}

// OpenSession is an IN without a matching OUT. It is only used for live elapsed time.
type OpenSession struct {
	Start        time.Time
	BreakStart   *time.Time
	BreakMinutes int
}

// ElapsedMinutes is the worked time of the open session as of now.
func (o OpenSession) ElapsedMinutes(now time.Time) int {
	until := now
	if o.BreakStart != nil && o.BreakStart.Before(now) {
		until = *o.BreakStart
	}
	elapsed := calendar.MinutesBetween(o.Start, until) - o.BreakMinutes
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Anomaly records an event ignored by the permissive replay.
type Anomaly struct {
	EventID   string
	Type      punch.Type
	Timestamp time.Time
	Reason    string
}

const (
	AnomalyDuplicateIn      = "IN while a session is already open"
	AnomalyOutWithoutIn     = "OUT without an open session"
	AnomalyBreakWithoutIn   = "BREAK_START without an open session"
	AnomalyDuplicateBreak   = "BREAK_START while a break is already open"
	AnomalyBreakEndNoBreak  = "BREAK_END without an open break"
	AnomalyOutDuringBreak   = "OUT while a break is still open"
	AnomalyUnknownPunchType = "unknown punch type"
)

// Result is the reconstruction of one user's window.
type Result struct {
	WorkedMinutes int
	BreakMinutes  int
	IsLate        bool
	LateMinutes   int
	FirstIn       *time.Time
	Sessions      []WorkSession
	OpenSession   *OpenSession
	Anomalies     []Anomaly
}

// sortEvents returns a chronologically ordered copy. Ties keep arrival order.
func sortEvents(events []punch.Event) []punch.Event {
	sorted := make([]punch.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Reconstruct replays one user's events into closed sessions. Transitions whose
// precondition does not hold are no-ops and are reported as anomalies.
func Reconstruct(events []punch.Event, opts Options) Result {
	loc := opts.location()

	var (
		res          Result
		sessionStart *time.Time
		breakStart   *time.Time
		breakTotal   time.Duration
		lateDecided  bool
	)

	for _, ev := range sortEvents(events) {
		ts := ev.Timestamp
		switch ev.Type {
		case punch.TypeIn:
			if sessionStart != nil {
				res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyDuplicateIn))
				continue
			}
			sessionStart = &ts
			if !lateDecided {
				lateDecided = true
				res.FirstIn = &ts
				res.IsLate = !calendar.WithinGrace(ts, loc, opts.DayStartHour, opts.DayStartMinute, opts.GraceMinutes)
				res.LateMinutes = calendar.LateMinutes(ts, loc, opts.DayStartHour, opts.DayStartMinute, opts.GraceMinutes)
			}

		case punch.TypeBreakStart:
			switch {
			case sessionStart == nil:
				res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyBreakWithoutIn))
			case breakStart != nil:
				res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyDuplicateBreak))
			default:
				breakStart = &ts
			}

		case punch.TypeBreakEnd:
			if breakStart == nil {
				res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyBreakEndNoBreak))
				continue
			}
			if d := ts.Sub(*breakStart); d > 0 {
				breakTotal += d
			}
			breakStart = nil

		case punch.TypeOut:
			if sessionStart == nil {
				res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyOutWithoutIn))
				continue
			}
			if breakStart != nil {
				// The open break is dropped, not charged.
				res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyOutDuringBreak))
			}
			breakMinutes := int(breakTotal / time.Minute)
			worked := calendar.MinutesBetween(*sessionStart, ts) - breakMinutes
			if worked < 0 {
				worked = 0
			}
			res.Sessions = append(res.Sessions, WorkSession{
				Start:         *sessionStart,
				End:           ts,
				BreakMinutes:  breakMinutes,
				WorkedMinutes: worked,
				IsLate:        len(res.Sessions) == 0 && res.IsLate,
			})
			res.WorkedMinutes += worked
			res.BreakMinutes += breakMinutes
			sessionStart, breakStart, breakTotal = nil, nil, 0

		default:
			res.Anomalies = append(res.Anomalies, anomaly(ev, AnomalyUnknownPunchType))
		}
	}

	if sessionStart != nil {
		res.OpenSession = &OpenSession{
			Start:        *sessionStart,
			BreakStart:   breakStart,
			BreakMinutes: int(breakTotal / time.Minute),
		}
	}

	return res
}

// ReconstructDay reconstructs only the events whose local date equals dayKey.
func ReconstructDay(events []punch.Event, dayKey string, opts Options) Result {
	loc := opts.location()
	day := make([]punch.Event, 0, len(events))
	for _, ev := range events {
		if calendar.DayKey(ev.Timestamp, loc) == dayKey {
			day = append(day, ev)
		}
	}
	return Reconstruct(day, opts)
}

// DeriveState replays events to the live punch state without computing minutes.
func DeriveState(events []punch.Event) punch.State {
	state := punch.StateIdle
	for _, ev := range sortEvents(events) {
		switch ev.Type {
		case punch.TypeIn:
			if state == punch.StateIdle {
				state = punch.StateWorking
			}
		case punch.TypeBreakStart:
			if state == punch.StateWorking {
				state = punch.StateOnBreak
			}
		case punch.TypeBreakEnd:
			if state == punch.StateOnBreak {
				state = punch.StateWorking
			}
		case punch.TypeOut:
			if state != punch.StateIdle {
				state = punch.StateIdle
			}
		}
	}
	return state
}

func anomaly(ev punch.Event, reason string) Anomaly {
	return Anomaly{
		EventID:   ev.ID,
		Type:      ev.Type,
		Timestamp: ev.Timestamp,
		Reason:    reason,
	}
}
