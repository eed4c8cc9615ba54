package session

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("UTC+7", 7*60*60)

func testOptions() Options {
	return Options{
		Location:       testLoc,
		DayStartHour:   9,
		DayStartMinute: 0,
		GraceMinutes:   5,
	}
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, testLoc).UTC()
}

func ev(id string, typ punch.Type, ts time.Time) punch.Event {
	return punch.Event{ID: id, UserID: "u1", OrgID: "o1", Type: typ, Timestamp: ts}
}

func TestReconstruct_SessionWithBreak(t *testing.T) {
	events := []punch.Event{
		ev("1", punch.TypeIn, at(9, 0)),
		ev("2", punch.TypeBreakStart, at(12, 0)),
		ev("3", punch.TypeBreakEnd, at(12, 30)),
		ev("4", punch.TypeOut, at(17, 0)),
	}

	res := Reconstruct(events, testOptions())

	assert.Equal(t, 450, res.WorkedMinutes)
	assert.Equal(t, 30, res.BreakMinutes)
	assert.False(t, res.IsLate)
	assert.Nil(t, res.OpenSession)
	assert.Empty(t, res.Anomalies)
	require.Len(t, res.Sessions, 1)
	assert.Equal(t, 450, res.Sessions[0].WorkedMinutes)
}

func TestReconstruct_LateArrival(t *testing.T) {
	res := Reconstruct([]punch.Event{
		ev("1", punch.TypeIn, at(9, 7)),
		ev("2", punch.TypeOut, at(17, 0)),
	}, testOptions())

	assert.True(t, res.IsLate)
	assert.Equal(t, 7, res.LateMinutes)
	assert.Equal(t, 473, res.WorkedMinutes)
	require.Len(t, res.Sessions, 1)
	assert.True(t, res.Sessions[0].IsLate)
}

func TestReconstruct_DanglingIn(t *testing.T) {
	res := Reconstruct([]punch.Event{ev("1", punch.TypeIn, at(9, 0))}, testOptions())

	assert.Equal(t, 0, res.WorkedMinutes)
	assert.Empty(t, res.Sessions)
	require.NotNil(t, res.OpenSession)
	assert.Equal(t, at(9, 0), res.OpenSession.Start)
	assert.Equal(t, 90, res.OpenSession.ElapsedMinutes(at(10, 30)))
}

func TestReconstruct_UnorderedInput(t *testing.T) {
	events := []punch.Event{
		ev("4", punch.TypeOut, at(17, 0)),
		ev("2", punch.TypeBreakStart, at(12, 0)),
		ev("1", punch.TypeIn, at(9, 0)),
		ev("3", punch.TypeBreakEnd, at(12, 30)),
	}

	res := Reconstruct(events, testOptions())
	assert.Equal(t, 450, res.WorkedMinutes)
	assert.Empty(t, res.Anomalies)
}

func TestReconstruct_DuplicateInKeepsFirstStart(t *testing.T) {
	res := Reconstruct([]punch.Event{
		ev("1", punch.TypeIn, at(8, 55)),
		ev("2", punch.TypeIn, at(9, 30)),
		ev("3", punch.TypeOut, at(17, 0)),
	}, testOptions())

	assert.False(t, res.IsLate)
	assert.Equal(t, 485, res.WorkedMinutes)
	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, AnomalyDuplicateIn, res.Anomalies[0].Reason)
	assert.Equal(t, "2", res.Anomalies[0].EventID)
}

func TestReconstruct_LatenessDecidedOnce(t *testing.T) {
	// An erroneous early OUT followed by a late IN must not flip lateness.
	res := Reconstruct([]punch.Event{
		ev("1", punch.TypeIn, at(9, 0)),
		ev("2", punch.TypeOut, at(9, 1)),
		ev("3", punch.TypeIn, at(10, 0)),
		ev("4", punch.TypeOut, at(12, 0)),
	}, testOptions())

	assert.False(t, res.IsLate)
	assert.Equal(t, 121, res.WorkedMinutes)
	require.Len(t, res.Sessions, 2)
	assert.False(t, res.Sessions[1].IsLate)
}

func TestReconstruct_MultipleSessionsAddIndependently(t *testing.T) {
	res := Reconstruct([]punch.Event{
		ev("1", punch.TypeIn, at(9, 0)),
		ev("2", punch.TypeOut, at(12, 0)),
		ev("3", punch.TypeIn, at(13, 0)),
		ev("4", punch.TypeBreakStart, at(14, 0)),
		ev("5", punch.TypeBreakEnd, at(14, 15)),
		ev("6", punch.TypeOut, at(18, 0)),
	}, testOptions())

	assert.Equal(t, 180+285, res.WorkedMinutes)
	assert.Equal(t, 15, res.BreakMinutes)
	assert.Len(t, res.Sessions, 2)
}

func TestReconstruct_PermissiveNoOps(t *testing.T) {
	cases := []struct {
		name   string
		events []punch.Event
		worked int
		reason string
	}{
		{
			name:   "out without in",
			events: []punch.Event{ev("1", punch.TypeOut, at(17, 0))},
			reason: AnomalyOutWithoutIn,
		},
		{
			name:   "break start without session",
			events: []punch.Event{ev("1", punch.TypeBreakStart, at(12, 0))},
			reason: AnomalyBreakWithoutIn,
		},
		{
			name:   "break end without break",
			events: []punch.Event{ev("1", punch.TypeIn, at(9, 0)), ev("2", punch.TypeBreakEnd, at(12, 0)), ev("3", punch.TypeOut, at(13, 0))},
			worked: 240,
			reason: AnomalyBreakEndNoBreak,
		},
		{
			name: "duplicate break start",
			events: []punch.Event{
				ev("1", punch.TypeIn, at(9, 0)),
				ev("2", punch.TypeBreakStart, at(12, 0)),
				ev("3", punch.TypeBreakStart, at(12, 10)),
				ev("4", punch.TypeBreakEnd, at(12, 30)),
				ev("5", punch.TypeOut, at(13, 0)),
			},
			worked: 210,
			reason: AnomalyDuplicateBreak,
		},
		{
			name: "out during open break drops the break",
			events: []punch.Event{
				ev("1", punch.TypeIn, at(9, 0)),
				ev("2", punch.TypeBreakStart, at(12, 0)),
				ev("3", punch.TypeOut, at(13, 0)),
			},
			worked: 240,
			reason: AnomalyOutDuringBreak,
		},
		{
			name:   "unknown punch type",
			events: []punch.Event{ev("1", punch.Type("LUNCH"), at(12, 0))},
			reason: AnomalyUnknownPunchType,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := Reconstruct(c.events, testOptions())
			assert.Equal(t, c.worked, res.WorkedMinutes)
			require.Len(t, res.Anomalies, 1)
			assert.Equal(t, c.reason, res.Anomalies[0].Reason)
		})
	}
}

func TestReconstruct_BreakAfterOutIgnored(t *testing.T) {
	res := Reconstruct([]punch.Event{
		ev("1", punch.TypeIn, at(9, 0)),
		ev("2", punch.TypeBreakStart, at(9, 10)),
		ev("3", punch.TypeBreakEnd, at(9, 10)),
		ev("4", punch.TypeOut, at(9, 5)),
	}, testOptions())

	assert.Equal(t, 5, res.WorkedMinutes)
	assert.Len(t, res.Anomalies, 2)
}

func TestReconstruct_Properties(t *testing.T) {
	types := []punch.Type{punch.TypeIn, punch.TypeOut, punch.TypeBreakStart, punch.TypeBreakEnd}

	// Deterministic pseudo-random event streams.
	seed := uint32(7)
	next := func() uint32 {
		seed = seed*1664525 + 1013904223
		return seed
	}

	for run := 0; run < 200; run++ {
		n := int(next()%12) + 1
		events := make([]punch.Event, 0, n)
		for i := 0; i < n; i++ {
			typ := types[next()%4]
			events = append(events, ev(string(rune('a'+i)), typ, at(7, 0).Add(time.Duration(next()%720)*time.Minute)))
		}

		first := Reconstruct(events, testOptions())
		second := Reconstruct(events, testOptions())
		assert.Equal(t, first, second, "replay must be idempotent")
		assert.GreaterOrEqual(t, first.WorkedMinutes, 0)

		var firstIn, lastOut *time.Time
		for _, e := range sortEvents(events) {
			e := e
			if e.Type == punch.TypeIn && firstIn == nil {
				firstIn = &e.Timestamp
			}
			if e.Type == punch.TypeOut {
				lastOut = &e.Timestamp
			}
		}
		if firstIn == nil || lastOut == nil {
			assert.Equal(t, 0, first.WorkedMinutes)
			continue
		}
		span := int(lastOut.Sub(*firstIn) / time.Minute)
		if span < 0 {
			span = 0
		}
		assert.LessOrEqual(t, first.WorkedMinutes, span)
	}
}

func TestReconstructDay_FiltersWiderWindow(t *testing.T) {
	prev := time.Date(2024, 3, 3, 9, 0, 0, 0, testLoc).UTC()
	events := []punch.Event{
		ev("0", punch.TypeIn, prev),
		ev("1", punch.TypeIn, at(9, 0)),
		ev("2", punch.TypeOut, at(17, 0)),
	}

	res := ReconstructDay(events, "2024-03-04", testOptions())
	assert.Equal(t, 480, res.WorkedMinutes)
	assert.Empty(t, res.Anomalies)

	prevDay := ReconstructDay(events, "2024-03-03", testOptions())
	assert.NotNil(t, prevDay.OpenSession)
	assert.Equal(t, 0, prevDay.WorkedMinutes)
}

func TestDeriveState(t *testing.T) {
	cases := []struct {
		name   string
		events []punch.Event
		want   punch.State
	}{
		{"no events", nil, punch.StateIdle},
		{"clocked in", []punch.Event{ev("1", punch.TypeIn, at(9, 0))}, punch.StateWorking},
		{"on break", []punch.Event{ev("1", punch.TypeIn, at(9, 0)), ev("2", punch.TypeBreakStart, at(12, 0))}, punch.StateOnBreak},
		{"back from break", []punch.Event{
			ev("1", punch.TypeIn, at(9, 0)),
			ev("2", punch.TypeBreakStart, at(12, 0)),
			ev("3", punch.TypeBreakEnd, at(12, 30)),
		}, punch.StateWorking},
		{"clocked out", []punch.Event{ev("1", punch.TypeIn, at(9, 0)), ev("2", punch.TypeOut, at(17, 0))}, punch.StateIdle},
		{"unordered", []punch.Event{ev("2", punch.TypeOut, at(17, 0)), ev("1", punch.TypeIn, at(9, 0))}, punch.StateIdle},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, DeriveState(c.events))
		})
	}
}

func TestReconstruct_RequiresLocation(t *testing.T) {
	events := []punch.Event{ev("1", punch.TypeIn, at(9, 0))}

	assert.Panics(t, func() { Reconstruct(events, Options{}) })
	assert.Panics(t, func() { ReconstructDay(events, "2024-03-04", Options{}) })
}
