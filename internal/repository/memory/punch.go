package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
)

type eventRepository struct {
	s *Store
}

// Append implements punch.EventRepository.
func (r *eventRepository) Append(ctx context.Context, event punch.Event) (punch.Event, error) {
	if err := ctx.Err(); err != nil {
		return punch.Event{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.Timestamp = event.Timestamp.UTC()
	r.s.events = append(r.s.events, event)
	return event, nil
}

// ListByUserBetween implements punch.EventRepository.
func (r *eventRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]punch.Event, error) {
	return r.filter(ctx, func(e punch.Event) bool {
		return e.UserID == userID && inWindow(e.Timestamp, from, to)
	})
}

// ListByOrgBetween implements punch.EventRepository.
func (r *eventRepository) ListByOrgBetween(ctx context.Context, orgID string, from, to time.Time) ([]punch.Event, error) {
	return r.filter(ctx, func(e punch.Event) bool {
		return e.OrgID == orgID && inWindow(e.Timestamp, from, to)
	})
}

// LatestByUser implements punch.EventRepository.
func (r *eventRepository) LatestByUser(ctx context.Context, userID string) (punch.Event, error) {
	if err := ctx.Err(); err != nil {
		return punch.Event{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var (
		latest punch.Event
		found  bool
	)
	for _, e := range r.s.events {
		if e.UserID != userID {
			continue
		}
		if !found || !e.Timestamp.Before(latest.Timestamp) {
			latest, found = e, true
		}
	}
	if !found {
		return punch.Event{}, punch.ErrEventNotFound
	}
	return latest, nil
}

func (r *eventRepository) filter(ctx context.Context, keep func(punch.Event) bool) ([]punch.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []punch.Event
	for _, e := range r.s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func inWindow(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}

func NewEventRepository(s *Store) punch.EventRepository {
	return &eventRepository{s: s}
}

type userLocker struct {
	s *Store
}

// WithUserLock implements punch.UserLocker with one mutex per user.
func (l *userLocker) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	l.s.lockMu.Lock()
	m, ok := l.s.userLocks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.s.userLocks[userID] = m
	}
	l.s.lockMu.Unlock()

	m.Lock()
	defer m.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func NewUserLocker(s *Store) punch.UserLocker {
	return &userLocker{s: s}
}
