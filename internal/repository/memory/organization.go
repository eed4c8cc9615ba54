package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
)

type organizationRepository struct {
	s *Store
}

// GetByID implements organization.OrganizationRepository.
func (r *organizationRepository) GetByID(ctx context.Context, id string) (organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	org, ok := r.s.orgs[id]
	if !ok {
		return organization.Organization{}, organization.ErrOrganizationNotFound
	}
	return org, nil
}

// List implements organization.OrganizationRepository.
func (r *organizationRepository) List(ctx context.Context) ([]organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]organization.Organization, 0, len(r.s.orgs))
	for _, org := range r.s.orgs {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func NewOrganizationRepository(s *Store) organization.OrganizationRepository {
	return &organizationRepository{s: s}
}

type memberRepository struct {
	s *Store
}

// ListByOrg implements organization.MemberRepository.
func (r *memberRepository) ListByOrg(ctx context.Context, orgID string) ([]organization.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]organization.Member(nil), r.s.members[orgID]...), nil
}

// GetByUserID implements organization.MemberRepository.
func (r *memberRepository) GetByUserID(ctx context.Context, orgID string, userID string) (organization.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members[orgID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return organization.Member{}, organization.ErrMemberNotFound
}

func NewMemberRepository(s *Store) organization.MemberRepository {
	return &memberRepository{s: s}
}
