package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type kpiSnapshotRepository struct {
	db *database.DB
}

// Upsert implements kpi.SnapshotRepository.
func (r *kpiSnapshotRepository) Upsert(ctx context.Context, snapshot kpi.StoredSnapshot) error {
	q := GetQuerier(ctx, r.db)

	payload, err := json.Marshal(snapshot.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode kpi snapshot: %w", err)
	}

	query := `
		INSERT INTO kpi_snapshots (org_id, snapshot_date, snapshot, created_at)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (org_id, snapshot_date) DO UPDATE SET
			snapshot = EXCLUDED.snapshot,
			created_at = EXCLUDED.created_at
	`
	if _, err := q.Exec(ctx, query, snapshot.OrgID, snapshot.Date, payload, snapshot.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert kpi snapshot: %w", err)
	}
	return nil
}

// Get implements kpi.SnapshotRepository.
func (r *kpiSnapshotRepository) Get(ctx context.Context, orgID string, date string) (kpi.StoredSnapshot, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT org_id, to_char(snapshot_date, 'YYYY-MM-DD'), snapshot, created_at
		FROM kpi_snapshots
		WHERE org_id = $1 AND snapshot_date = $2::date
	`

	var (
		stored  kpi.StoredSnapshot
		payload []byte
	)
	err := q.QueryRow(ctx, query, orgID, date).Scan(&stored.OrgID, &stored.Date, &payload, &stored.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpi.StoredSnapshot{}, kpi.ErrSnapshotNotFound
		}
		return kpi.StoredSnapshot{}, fmt.Errorf("failed to get kpi snapshot: %w", err)
	}
	if err := json.Unmarshal(payload, &stored.Snapshot); err != nil {
		return kpi.StoredSnapshot{}, fmt.Errorf("failed to decode kpi snapshot: %w", err)
	}
	return stored, nil
}

func NewKPISnapshotRepository(db *database.DB) kpi.SnapshotRepository {
	return &kpiSnapshotRepository{db: db}
}
