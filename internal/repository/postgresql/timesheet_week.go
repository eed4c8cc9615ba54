package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type timesheetWeekRepository struct {
	db *database.DB
}

const timesheetWeekColumns = `
	id::text, user_id, org_id, to_char(week_start, 'YYYY-MM-DD'), cells, total_minutes,
	status, submitted_at, weekend_overrides, missing_reason_dates,
	created_at, updated_at
`

// Get implements timesheet.WeekRepository.
func (r *timesheetWeekRepository) Get(ctx context.Context, userID string, weekStart string) (*timesheet.Week, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timesheetWeekColumns + `
		FROM timesheet_weeks
		WHERE user_id = $1 AND week_start = $2::date
	`

	week, err := scanTimesheetWeek(q.QueryRow(ctx, query, userID, weekStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, timesheet.ErrWeekNotFound
		}
		return nil, fmt.Errorf("failed to get timesheet week: %w", err)
	}
	return week, nil
}

// Save implements timesheet.WeekRepository.
func (r *timesheetWeekRepository) Save(ctx context.Context, week *timesheet.Week) error {
	q := GetQuerier(ctx, r.db)

	cellsJSON, err := json.Marshal(week.Cells)
	if err != nil {
		return fmt.Errorf("failed to encode timesheet cells: %w", err)
	}
	overrides := week.WeekendOverrides
	if overrides == nil {
		overrides = []string{}
	}
	missing := week.MissingReasonDates
	if missing == nil {
		missing = []string{}
	}

	query := `
		INSERT INTO timesheet_weeks (
			user_id, org_id, week_start, cells, total_minutes,
			status, submitted_at, weekend_overrides, missing_reason_dates
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, week_start) DO UPDATE SET
			cells = EXCLUDED.cells,
			total_minutes = EXCLUDED.total_minutes,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			weekend_overrides = EXCLUDED.weekend_overrides,
			missing_reason_dates = EXCLUDED.missing_reason_dates,
			updated_at = NOW()
		RETURNING id::text, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		week.UserID,
		week.OrgID,
		week.WeekStart,
		cellsJSON,
		week.TotalMinutes,
		string(week.Status),
		week.SubmittedAt,
		overrides,
		missing,
	).Scan(&week.ID, &week.CreatedAt, &week.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save timesheet week: %w", err)
	}
	return nil
}

// ListByStatus implements timesheet.WeekRepository.
func (r *timesheetWeekRepository) ListByStatus(ctx context.Context, orgID string, status timesheet.Status, beforeWeek string) ([]*timesheet.Week, error) {
	query := `
		SELECT ` + timesheetWeekColumns + `
		FROM timesheet_weeks
		WHERE org_id = $1 AND status = $2 AND week_start < $3::date
		ORDER BY week_start, user_id
	`
	return r.list(ctx, query, orgID, string(status), beforeWeek)
}

// ListApproved implements timesheet.WeekRepository.
func (r *timesheetWeekRepository) ListApproved(ctx context.Context, orgID string, fromWeek, toWeek string) ([]*timesheet.Week, error) {
	query := `
		SELECT ` + timesheetWeekColumns + `
		FROM timesheet_weeks
		WHERE org_id = $1 AND status = $2
		  AND week_start BETWEEN $3::date AND $4::date
		ORDER BY week_start, user_id
	`
	return r.list(ctx, query, orgID, string(timesheet.StatusApproved), fromWeek, toWeek)
}

func (r *timesheetWeekRepository) list(ctx context.Context, query string, args ...interface{}) ([]*timesheet.Week, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet weeks: %w", err)
	}
	defer rows.Close()

	var weeks []*timesheet.Week
	for rows.Next() {
		week, err := scanTimesheetWeek(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet week: %w", err)
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

func scanTimesheetWeek(row pgx.Row) (*timesheet.Week, error) {
	var (
		week      timesheet.Week
		cellsJSON []byte
		status    string
	)
	err := row.Scan(
		&week.ID, &week.UserID, &week.OrgID, &week.WeekStart, &cellsJSON, &week.TotalMinutes,
		&status, &week.SubmittedAt, &week.WeekendOverrides, &week.MissingReasonDates,
		&week.CreatedAt, &week.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	week.Status = timesheet.Status(status)
	week.Cells = make(map[string]map[string]timesheet.CellEntry)
	if len(cellsJSON) > 0 {
		if err := json.Unmarshal(cellsJSON, &week.Cells); err != nil {
			return nil, fmt.Errorf("failed to decode timesheet cells: %w", err)
		}
	}
	return &week, nil
}

func NewTimesheetWeekRepository(db *database.DB) timesheet.WeekRepository {
	return &timesheetWeekRepository{db: db}
}
