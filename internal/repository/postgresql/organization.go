package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type organizationRepository struct {
	db *database.DB
}

const organizationColumns = `
	id, name, timezone, workday_hours, lateness_grace_minutes,
	day_start_hour, day_start_minute, holidays,
	geofence_lat, geofence_lng, geofence_radius_meters,
	daily_minimum_minutes, weekly_minimum_minutes,
	created_at, updated_at
`

// GetByID implements organization.OrganizationRepository.
func (r *organizationRepository) GetByID(ctx context.Context, id string) (organization.Organization, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	org, err := scanOrganization(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrOrganizationNotFound
		}
		return organization.Organization{}, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// List implements organization.OrganizationRepository.
func (r *organizationRepository) List(ctx context.Context) ([]organization.Organization, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []organization.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// Upsert stores an organization, used to load seed data.
func (r *organizationRepository) Upsert(ctx context.Context, org organization.Organization) error {
	q := GetQuerier(ctx, r.db)

	var lat, lng, radius *float64
	if g := org.DefaultGeofence; g != nil {
		lat, lng, radius = &g.Lat, &g.Lng, &g.RadiusMeters
	}
	holidays := org.Holidays
	if holidays == nil {
		holidays = []string{}
	}

	query := `
		INSERT INTO organizations (
			id, name, timezone, workday_hours, lateness_grace_minutes,
			day_start_hour, day_start_minute, holidays,
			geofence_lat, geofence_lng, geofence_radius_meters,
			daily_minimum_minutes, weekly_minimum_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			workday_hours = EXCLUDED.workday_hours,
			lateness_grace_minutes = EXCLUDED.lateness_grace_minutes,
			day_start_hour = EXCLUDED.day_start_hour,
			day_start_minute = EXCLUDED.day_start_minute,
			holidays = EXCLUDED.holidays,
			geofence_lat = EXCLUDED.geofence_lat,
			geofence_lng = EXCLUDED.geofence_lng,
			geofence_radius_meters = EXCLUDED.geofence_radius_meters,
			daily_minimum_minutes = EXCLUDED.daily_minimum_minutes,
			weekly_minimum_minutes = EXCLUDED.weekly_minimum_minutes,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		org.ID, org.Name, org.Timezone, org.WorkdayHours, org.LatenessGraceMinutes,
		org.DayStartHour, org.DayStartMinute, holidays,
		lat, lng, radius,
		org.DailyMinimumMinutes, org.WeeklyMinimumMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert organization: %w", err)
	}
	return nil
}

func scanOrganization(row pgx.Row) (organization.Organization, error) {
	var (
		org              organization.Organization
		lat, lng, radius *float64
	)
	err := row.Scan(
		&org.ID, &org.Name, &org.Timezone, &org.WorkdayHours, &org.LatenessGraceMinutes,
		&org.DayStartHour, &org.DayStartMinute, &org.Holidays,
		&lat, &lng, &radius,
		&org.DailyMinimumMinutes, &org.WeeklyMinimumMinutes,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return organization.Organization{}, err
	}
	if lat != nil && lng != nil {
		geo := punch.Geo{Lat: *lat, Lng: *lng}
		if radius != nil {
			geo.RadiusMeters = *radius
		}
		org.DefaultGeofence = &geo
	}
	return org, nil
}

// OrganizationStore is the organization repository with write access for seeding.
type OrganizationStore interface {
	organization.OrganizationRepository
	Upsert(ctx context.Context, org organization.Organization) error
}

func NewOrganizationRepository(db *database.DB) OrganizationStore {
	return &organizationRepository{db: db}
}

type memberRepository struct {
	db *database.DB
}

// ListByOrg implements organization.MemberRepository.
func (r *memberRepository) ListByOrg(ctx context.Context, orgID string) ([]organization.Member, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, org_id, team_id, name
		FROM members
		WHERE org_id = $1
		ORDER BY user_id
	`

	rows, err := q.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []organization.Member
	for rows.Next() {
		var m organization.Member
		if err := rows.Scan(&m.UserID, &m.OrgID, &m.TeamID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetByUserID implements organization.MemberRepository.
func (r *memberRepository) GetByUserID(ctx context.Context, orgID string, userID string) (organization.Member, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, org_id, team_id, name
		FROM members
		WHERE org_id = $1 AND user_id = $2
	`

	var m organization.Member
	err := q.QueryRow(ctx, query, orgID, userID).Scan(&m.UserID, &m.OrgID, &m.TeamID, &m.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Member{}, organization.ErrMemberNotFound
		}
		return organization.Member{}, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// Upsert stores a member, used to load seed data.
func (r *memberRepository) Upsert(ctx context.Context, m organization.Member) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO members (user_id, org_id, team_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			name = EXCLUDED.name
	`
	if _, err := q.Exec(ctx, query, m.UserID, m.OrgID, m.TeamID, m.Name); err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// MemberStore is the member repository with write access for seeding.
type MemberStore interface {
	organization.MemberRepository
	Upsert(ctx context.Context, m organization.Member) error
}

func NewMemberRepository(db *database.DB) MemberStore {
	return &memberRepository{db: db}
}
