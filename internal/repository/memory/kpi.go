package memory

import (
	"context"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
)

type snapshotRepository struct {
	s *Store
}

// Upsert implements kpi.SnapshotRepository.
func (r *snapshotRepository) Upsert(ctx context.Context, snapshot kpi.StoredSnapshot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.snapshots[snapshot.OrgID+"|"+snapshot.Date] = snapshot
	return nil
}

// Get implements kpi.SnapshotRepository.
func (r *snapshotRepository) Get(ctx context.Context, orgID string, date string) (kpi.StoredSnapshot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	snap, ok := r.s.snapshots[orgID+"|"+date]
	if !ok {
		return kpi.StoredSnapshot{}, kpi.ErrSnapshotNotFound
	}
	return snap, nil
}

func NewSnapshotRepository(s *Store) kpi.SnapshotRepository {
	return &snapshotRepository{s: s}
}
