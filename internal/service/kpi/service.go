package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/session"
)

type KPIServiceImpl struct {
	orgRepo      organization.OrganizationRepository
	memberRepo   organization.MemberRepository
	eventRepo    punch.EventRepository
	snapshotRepo kpi.SnapshotRepository
	approvals    kpi.WeekApprovalSource
	workers      int
	now          func() time.Time
}

// window is the loaded input of one range request.
type window struct {
	org      organization.Organization
	agg      *Aggregator
	from, to time.Time
	accs     []kpi.DailyAccumulator
}

func (s *KPIServiceImpl) load(ctx context.Context, req kpi.RangeRequest) (*window, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}
	agg, err := NewAggregator(org, s.workers)
	if err != nil {
		return nil, err
	}

	from, err := calendar.ParseDate(req.From, agg.Location())
	if err != nil {
		return nil, err
	}
	to, err := calendar.ParseDate(req.To, agg.Location())
	if err != nil {
		return nil, err
	}
	start, _ := calendar.DayBounds(from, agg.Location())
	_, end := calendar.DayBounds(to, agg.Location())

	events, err := s.eventRepo.ListByOrgBetween(ctx, org.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch events: %w", err)
	}
	members, err := s.memberRepo.ListByOrg(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	accs, err := agg.Accumulate(ctx, events, members, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to accumulate attendance: %w", err)
	}

	return &window{org: org, agg: agg, from: from, to: to, accs: accs}, nil
}

// GetSnapshot implements kpi.KPIService.
func (s *KPIServiceImpl) GetSnapshot(ctx context.Context, req kpi.RangeRequest) (kpi.SnapshotResponse, error) {
	w, err := s.load(ctx, req)
	if err != nil {
		return kpi.SnapshotResponse{}, err
	}
	return kpi.SnapshotResponse{
		OrgID:    w.org.ID,
		From:     req.From,
		To:       req.To,
		Snapshot: Fold(w.accs).Snapshot(),
	}, nil
}

// GetTeamBreakdown implements kpi.KPIService.
func (s *KPIServiceImpl) GetTeamBreakdown(ctx context.Context, req kpi.RangeRequest) ([]kpi.TeamBreakdown, error) {
	w, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	return ByTeam(w.accs), nil
}

// GetDateBreakdown implements kpi.KPIService.
func (s *KPIServiceImpl) GetDateBreakdown(ctx context.Context, req kpi.RangeRequest) ([]kpi.DateBreakdown, error) {
	w, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	return ByDate(w.accs), nil
}

// GetWeeklyRows implements kpi.KPIService.
func (s *KPIServiceImpl) GetWeeklyRows(ctx context.Context, req kpi.RangeRequest) ([]kpi.WeeklyRow, error) {
	w, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}

	approved := map[string]bool{}
	if s.approvals != nil {
		loc := w.agg.Location()
		fromWeek := calendar.WeekStart(w.from, loc).Format(calendar.DateLayout)
		toWeek := calendar.WeekStart(w.to, loc).Format(calendar.DateLayout)
		approved, err = s.approvals.ApprovedWeeks(ctx, w.org.ID, fromWeek, toWeek)
		if err != nil {
			return nil, fmt.Errorf("failed to load approved weeks: %w", err)
		}
	}

	return w.agg.Weekly(w.accs, approved), nil
}

// GetLiveBoard implements kpi.KPIService.
func (s *KPIServiceImpl) GetLiveBoard(ctx context.Context, orgID string) (kpi.LiveBoardResponse, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return kpi.LiveBoardResponse{}, err
	}
	agg, err := NewAggregator(org, s.workers)
	if err != nil {
		return kpi.LiveBoardResponse{}, err
	}
	loc := agg.Location()

	now := s.now().UTC()
	start, end := calendar.DayBounds(now, loc)

	events, err := s.eventRepo.ListByOrgBetween(ctx, org.ID, start, end)
	if err != nil {
		return kpi.LiveBoardResponse{}, fmt.Errorf("failed to list punch events: %w", err)
	}
	members, err := s.memberRepo.ListByOrg(ctx, org.ID)
	if err != nil {
		return kpi.LiveBoardResponse{}, fmt.Errorf("failed to list members: %w", err)
	}

	byUser := make(map[string][]punch.Event)
	for _, ev := range events {
		byUser[ev.UserID] = append(byUser[ev.UserID], ev)
	}

	resp := kpi.LiveBoardResponse{
		OrgID:   org.ID,
		Date:    calendar.DayKey(now, loc),
		Entries: make([]kpi.LiveEntry, 0, len(members)),
	}

	seen := make(map[string]bool, len(members))
	add := func(userID, name, teamID string) {
		seen[userID] = true
		evs := byUser[userID]
		res := session.Reconstruct(evs, agg.SessionOptions())
		state := session.DeriveState(evs)

		entry := kpi.LiveEntry{
			UserID:        userID,
			Name:          name,
			TeamID:        teamID,
			State:         string(state),
			WorkedMinutes: res.WorkedMinutes,
			IsLate:        res.IsLate,
		}
		if res.OpenSession != nil {
			startStr := res.OpenSession.Start.In(loc).Format(time.RFC3339)
			entry.SessionStart = &startStr
			entry.ElapsedMinutes = res.OpenSession.ElapsedMinutes(now)
		}

		switch state {
		case punch.StateWorking:
			resp.Working++
		case punch.StateOnBreak:
			resp.OnBreak++
		default:
			resp.Idle++
		}
		resp.Entries = append(resp.Entries, entry)
	}

	for _, m := range members {
		if seen[m.UserID] {
			continue
		}
		teamID := kpi.UnassignedTeam
		if m.TeamID != nil && *m.TeamID != "" {
			teamID = *m.TeamID
		}
		add(m.UserID, m.Name, teamID)
	}
	for userID := range byUser {
		if !seen[userID] {
			add(userID, "", kpi.UnassignedTeam)
		}
	}

	sort.Slice(resp.Entries, func(i, j int) bool { return resp.Entries[i].UserID < resp.Entries[j].UserID })
	return resp, nil
}

// RecordDailySnapshot implements kpi.KPIService.
func (s *KPIServiceImpl) RecordDailySnapshot(ctx context.Context, orgID string, date string) (kpi.StoredSnapshot, error) {
	resp, err := s.GetSnapshot(ctx, kpi.RangeRequest{OrgID: orgID, From: date, To: date})
	if err != nil {
		return kpi.StoredSnapshot{}, err
	}

	stored := kpi.StoredSnapshot{
		OrgID:     orgID,
		Date:      date,
		Snapshot:  resp.Snapshot,
		CreatedAt: s.now().UTC(),
	}
	if err := s.snapshotRepo.Upsert(ctx, stored); err != nil {
		return kpi.StoredSnapshot{}, fmt.Errorf("failed to store kpi snapshot: %w", err)
	}

	slog.Info("Recorded daily KPI snapshot", "org_id", orgID, "date", date,
		"counted_days", resp.Snapshot.CountedDays, "absences", resp.Snapshot.Absences)
	return stored, nil
}

// Option configures the KPI service.
type Option func(*KPIServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *KPIServiceImpl) { s.now = now }
}

// WithWorkers bounds the per-user fan-out of an aggregation.
func WithWorkers(n int) Option {
	return func(s *KPIServiceImpl) { s.workers = n }
}

// WithApprovals supplies the approved/pending status of weekly rows.
func WithApprovals(src kpi.WeekApprovalSource) Option {
	return func(s *KPIServiceImpl) { s.approvals = src }
}

func NewKPIService(
	orgRepo organization.OrganizationRepository,
	memberRepo organization.MemberRepository,
	eventRepo punch.EventRepository,
	snapshotRepo kpi.SnapshotRepository,
	opts ...Option,
) kpi.KPIService {
	s := &KPIServiceImpl{
		orgRepo:      orgRepo,
		memberRepo:   memberRepo,
		eventRepo:    eventRepo,
		snapshotRepo: snapshotRepo,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
