package punch

import (
	"context"
	"time"
)

// EventRepository is the append-only punch event store.
type EventRepository interface {
	// Append persists a new event. Existing events are never edited or deleted.
	Append(ctx context.Context, event Event) (Event, error)

	// ListByUserBetween returns a user's events with from <= timestamp < to in arrival order.
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]Event, error)

	// ListByOrgBetween returns an organization's events with from <= timestamp < to.
	ListByOrgBetween(ctx context.Context, orgID string, from, to time.Time) ([]Event, error)

	// LatestByUser returns the most recent event of the user, or ErrEventNotFound.
	LatestByUser(ctx context.Context, userID string) (Event, error)
}

// UserLocker serializes punch submissions for one user. The punch clock only
// implements validation; exactly-once semantics come from the lock holder.
type UserLocker interface {
	WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}
