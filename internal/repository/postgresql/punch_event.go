package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type punchEventRepository struct {
	db *database.DB
}

const punchEventColumns = `
	id, user_id, org_id, type, occurred_at, note,
	geo_lat, geo_lng, geo_radius_meters, created_at
`

// Append implements punch.EventRepository.
func (r *punchEventRepository) Append(ctx context.Context, event punch.Event) (punch.Event, error) {
	q := GetQuerier(ctx, r.db)

	var lat, lng, radius *float64
	if event.Geo != nil {
		lat, lng, radius = &event.Geo.Lat, &event.Geo.Lng, &event.Geo.RadiusMeters
	}

	query := `
		INSERT INTO punch_events (
			id, user_id, org_id, type, occurred_at, note,
			geo_lat, geo_lng, geo_radius_meters
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.OrgID,
		string(event.Type),
		event.Timestamp.UTC(),
		event.Note,
		lat,
		lng,
		radius,
	).Scan(&event.CreatedAt)
	if err != nil {
		return punch.Event{}, fmt.Errorf("failed to append punch event: %w", err)
	}

	event.Timestamp = event.Timestamp.UTC()
	return event, nil
}

// ListByUserBetween implements punch.EventRepository.
func (r *punchEventRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]punch.Event, error) {
	query := `
		SELECT ` + punchEventColumns + `
		FROM punch_events
		WHERE user_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY occurred_at, created_at
	`
	return r.list(ctx, query, userID, from.UTC(), to.UTC())
}

// ListByOrgBetween implements punch.EventRepository.
func (r *punchEventRepository) ListByOrgBetween(ctx context.Context, orgID string, from, to time.Time) ([]punch.Event, error) {
	query := `
		SELECT ` + punchEventColumns + `
		FROM punch_events
		WHERE org_id = $1
		  AND occurred_at >= $2
		  AND occurred_at < $3
		ORDER BY user_id, occurred_at, created_at
	`
	return r.list(ctx, query, orgID, from.UTC(), to.UTC())
}

// LatestByUser implements punch.EventRepository.
func (r *punchEventRepository) LatestByUser(ctx context.Context, userID string) (punch.Event, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchEventColumns + `
		FROM punch_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC, created_at DESC
		LIMIT 1
	`

	event, err := scanPunchEvent(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return punch.Event{}, punch.ErrEventNotFound
		}
		return punch.Event{}, fmt.Errorf("failed to get latest punch event: %w", err)
	}
	return event, nil
}

func (r *punchEventRepository) list(ctx context.Context, query string, args ...interface{}) ([]punch.Event, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events: %w", err)
	}
	defer rows.Close()

	var events []punch.Event
	for rows.Next() {
		event, err := scanPunchEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch events: %w", err)
	}
	return events, nil
}

func scanPunchEvent(row pgx.Row) (punch.Event, error) {
	var (
		event            punch.Event
		typ              string
		lat, lng, radius *float64
	)
	err := row.Scan(
		&event.ID, &event.UserID, &event.OrgID, &typ, &event.Timestamp, &event.Note,
		&lat, &lng, &radius, &event.CreatedAt,
	)
	if err != nil {
		return punch.Event{}, err
	}

	event.Type = punch.Type(typ)
	event.Timestamp = event.Timestamp.UTC()
	if lat != nil && lng != nil {
		geo := punch.Geo{Lat: *lat, Lng: *lng}
		if radius != nil {
			geo.RadiusMeters = *radius
		}
		event.Geo = &geo
	}
	return event, nil
}

func NewPunchEventRepository(db *database.DB) punch.EventRepository {
	return &punchEventRepository{db: db}
}

type userLocker struct {
	db *database.DB
}

// WithUserLock implements punch.UserLocker. fn runs inside a transaction
// holding a transaction-scoped advisory lock on the user, so repositories
// called with the passed context see and join that transaction.
func (l *userLocker) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, l.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
			return fmt.Errorf("failed to lock user %s: %w", userID, err)
		}
		return fn(ContextWithTx(ctx, tx))
	})
}

func NewUserLocker(db *database.DB) punch.UserLocker {
	return &userLocker{db: db}
}
