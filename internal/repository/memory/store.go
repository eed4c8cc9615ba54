package memory

import (
	"sync"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
)

// Store is a process-local backing store shared by the in-memory repositories.
// It is used by tests and by the memory store driver.
type Store struct {
	mu        sync.RWMutex
	orgs      map[string]organization.Organization
	members   map[string][]organization.Member
	events    []punch.Event
	weeks     map[string]*timesheet.Week
	snapshots map[string]kpi.StoredSnapshot

	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		orgs:      make(map[string]organization.Organization),
		members:   make(map[string][]organization.Member),
		weeks:     make(map[string]*timesheet.Week),
		snapshots: make(map[string]kpi.StoredSnapshot),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// PutOrganization inserts or replaces an organization.
func (s *Store) PutOrganization(org organization.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org.Holidays = append([]string(nil), org.Holidays...)
	s.orgs[org.ID] = org
}

// PutMember inserts or replaces a member of its organization.
func (s *Store) PutMember(m organization.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.members[m.OrgID]
	for i := range list {
		if list[i].UserID == m.UserID {
			list[i] = m
			return
		}
	}
	s.members[m.OrgID] = append(list, m)
}
