package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/google/uuid"
)

type weekRepository struct {
	s *Store
}

func weekKey(userID, weekStart string) string {
	return userID + "|" + weekStart
}

// Get implements timesheet.WeekRepository.
func (r *weekRepository) Get(ctx context.Context, userID string, weekStart string) (*timesheet.Week, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.weeks[weekKey(userID, weekStart)]
	if !ok {
		return nil, timesheet.ErrWeekNotFound
	}
	return cloneWeek(w), nil
}

// Save implements timesheet.WeekRepository.
func (r *weekRepository) Save(ctx context.Context, week *timesheet.Week) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	if week.ID == "" {
		week.ID = uuid.NewString()
	}
	if week.CreatedAt.IsZero() {
		week.CreatedAt = now
	}
	week.UpdatedAt = now
	r.s.weeks[weekKey(week.UserID, week.WeekStart)] = cloneWeek(week)
	return nil
}

// ListByStatus implements timesheet.WeekRepository.
func (r *weekRepository) ListByStatus(ctx context.Context, orgID string, status timesheet.Status, beforeWeek string) ([]*timesheet.Week, error) {
	return r.list(func(w *timesheet.Week) bool {
		return w.OrgID == orgID && w.Status == status && w.WeekStart < beforeWeek
	}), nil
}

// ListApproved implements timesheet.WeekRepository.
func (r *weekRepository) ListApproved(ctx context.Context, orgID string, fromWeek, toWeek string) ([]*timesheet.Week, error) {
	return r.list(func(w *timesheet.Week) bool {
		return w.OrgID == orgID && w.Status == timesheet.StatusApproved &&
			w.WeekStart >= fromWeek && w.WeekStart <= toWeek
	}), nil
}

func (r *weekRepository) list(keep func(*timesheet.Week) bool) []*timesheet.Week {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*timesheet.Week
	for _, w := range r.s.weeks {
		if keep(w) {
			out = append(out, cloneWeek(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeekStart != out[j].WeekStart {
			return out[i].WeekStart < out[j].WeekStart
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func cloneWeek(w *timesheet.Week) *timesheet.Week {
	c := *w
	c.Cells = make(map[string]map[string]timesheet.CellEntry, len(w.Cells))
	for code, days := range w.Cells {
		inner := make(map[string]timesheet.CellEntry, len(days))
		for d, e := range days {
			inner[d] = e
		}
		c.Cells[code] = inner
	}
	c.WeekendOverrides = append([]string(nil), w.WeekendOverrides...)
	c.MissingReasonDates = append([]string(nil), w.MissingReasonDates...)
	if w.SubmittedAt != nil {
		t := *w.SubmittedAt
		c.SubmittedAt = &t
	}
	return &c
}

func NewWeekRepository(s *Store) timesheet.WeekRepository {
	return &weekRepository{s: s}
}
