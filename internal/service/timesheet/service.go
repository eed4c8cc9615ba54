package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
)

type TimesheetServiceImpl struct {
	orgRepo    organization.OrganizationRepository
	memberRepo organization.MemberRepository
	weekRepo   timesheet.WeekRepository
	now        func() time.Time
}

// Option configures the timesheet service.
type Option func(*TimesheetServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TimesheetServiceImpl) { s.now = now }
}

func (s *TimesheetServiceImpl) rules(org organization.Organization) (Rules, error) {
	loc, err := org.Location()
	if err != nil {
		return Rules{}, fmt.Errorf("organization %s: %w", org.ID, err)
	}
	return Rules{
		Location:             loc,
		DailyMinimumMinutes:  org.DailyMinimumMinutes,
		WeeklyMinimumMinutes: org.WeeklyMinimumMinutes,
		Now:                  s.now,
	}, nil
}

// open resolves the ISO week of req and wraps it in a ledger. A missing week
// starts as an empty draft unless mustExist is set.
func (s *TimesheetServiceImpl) open(ctx context.Context, req timesheet.WeekRequest, mustExist bool) (*Ledger, error) {
	org, err := s.orgRepo.GetByID(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.GetByUserID(ctx, req.OrgID, req.UserID); err != nil {
		return nil, err
	}
	rules, err := s.rules(org)
	if err != nil {
		return nil, err
	}

	date, err := calendar.ParseDate(req.WeekStart, rules.Location)
	if err != nil {
		return nil, err
	}
	weekStart := calendar.WeekStart(date, rules.Location).Format(calendar.DateLayout)

	week, err := s.weekRepo.Get(ctx, req.UserID, weekStart)
	if err != nil {
		if !errors.Is(err, timesheet.ErrWeekNotFound) || mustExist {
			return nil, err
		}
		week = timesheet.NewWeek(req.UserID, org.ID, weekStart)
	}
	return NewLedger(week, rules)
}

func (s *TimesheetServiceImpl) mutate(ctx context.Context, req timesheet.WeekRequest, mustExist bool, fn func(*Ledger) error) (timesheet.WeekResponse, error) {
	ledger, err := s.open(ctx, req, mustExist)
	if err != nil {
		return timesheet.WeekResponse{}, err
	}
	if err := fn(ledger); err != nil {
		return timesheet.WeekResponse{}, err
	}
	if err := s.weekRepo.Save(ctx, ledger.Week()); err != nil {
		return timesheet.WeekResponse{}, fmt.Errorf("failed to save timesheet week: %w", err)
	}
	return toWeekResponse(ledger), nil
}

// GetWeek implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) GetWeek(ctx context.Context, req timesheet.WeekRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	ledger, err := s.open(ctx, req, false)
	if err != nil {
		return timesheet.WeekResponse{}, err
	}
	return toWeekResponse(ledger), nil
}

// UpsertCell implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) UpsertCell(ctx context.Context, req timesheet.UpsertCellRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	return s.mutate(ctx, req.WeekRequest, false, func(l *Ledger) error {
		return l.UpsertCell(req.ActivityCode, req.Date, timesheet.CellEntry{
			Minutes:  req.Minutes,
			Location: req.Location,
		})
	})
}

// RemoveCell implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) RemoveCell(ctx context.Context, req timesheet.RemoveCellRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	return s.mutate(ctx, req.WeekRequest, true, func(l *Ledger) error {
		return l.RemoveCell(req.ActivityCode, req.Date)
	})
}

// RemoveActivityCode implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) RemoveActivityCode(ctx context.Context, req timesheet.RemoveActivityRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	return s.mutate(ctx, req.WeekRequest, true, func(l *Ledger) error {
		return l.RemoveActivityCode(req.ActivityCode)
	})
}

// SendDay implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) SendDay(ctx context.Context, req timesheet.SendDayRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	return s.mutate(ctx, req.WeekRequest, false, func(l *Ledger) error {
		return l.SendDay(req.Date, req.DeficitReason)
	})
}

// AutoSendWeek implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) AutoSendWeek(ctx context.Context, req timesheet.WeekRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	return s.mutate(ctx, req, true, func(l *Ledger) error {
		return l.AutoSendWeek()
	})
}

// AddWeekendOverride implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) AddWeekendOverride(ctx context.Context, req timesheet.OverrideRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	return s.mutate(ctx, req.WeekRequest, false, func(l *Ledger) error {
		return l.AddWeekendOverride(req.Date)
	})
}

// ApproveWeek implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) ApproveWeek(ctx context.Context, req timesheet.WeekRequest) (timesheet.WeekResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.WeekResponse{}, err
	}
	resp, err := s.mutate(ctx, req, true, func(l *Ledger) error {
		return l.Approve()
	})
	if err != nil {
		return timesheet.WeekResponse{}, err
	}
	slog.Info("Approved timesheet week", "user_id", req.UserID, "week_start", resp.WeekStart)
	return resp, nil
}

// AutoSendDueWeeks implements timesheet.TimesheetService.
func (s *TimesheetServiceImpl) AutoSendDueWeeks(ctx context.Context, orgID string) (int, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return 0, err
	}
	rules, err := s.rules(org)
	if err != nil {
		return 0, err
	}

	currentWeek := calendar.WeekStart(s.now(), rules.Location).Format(calendar.DateLayout)
	weeks, err := s.weekRepo.ListByStatus(ctx, org.ID, timesheet.StatusDraft, currentWeek)
	if err != nil {
		return 0, fmt.Errorf("failed to list draft weeks: %w", err)
	}

	sent := 0
	for _, week := range weeks {
		ledger, err := NewLedger(week, rules)
		if err != nil {
			slog.Warn("Skipping timesheet week", "user_id", week.UserID, "week_start", week.WeekStart, "error", err)
			continue
		}
		if err := ledger.AutoSendWeek(); err != nil {
			slog.Warn("Failed to auto-send timesheet week", "user_id", week.UserID, "week_start", week.WeekStart, "error", err)
			continue
		}
		if err := s.weekRepo.Save(ctx, ledger.Week()); err != nil {
			return sent, fmt.Errorf("failed to save timesheet week: %w", err)
		}
		if week.Status == timesheet.StatusDraft {
			slog.Debug("Timesheet week not eligible for submission", "user_id", week.UserID, "week_start", week.WeekStart, "total_minutes", week.TotalMinutes)
			continue
		}
		sent++
		slog.Debug("Auto-sent timesheet week", "user_id", week.UserID, "week_start", week.WeekStart, "status", week.Status)
	}
	return sent, nil
}

// ApprovedWeeks implements kpi.WeekApprovalSource.
func (s *TimesheetServiceImpl) ApprovedWeeks(ctx context.Context, orgID string, fromWeek, toWeek string) (map[string]bool, error) {
	weeks, err := s.weekRepo.ListApproved(ctx, orgID, fromWeek, toWeek)
	if err != nil {
		return nil, err
	}
	approved := make(map[string]bool, len(weeks))
	for _, w := range weeks {
		approved[kpi.WeekKey(w.UserID, w.WeekStart)] = true
	}
	return approved, nil
}

func toWeekResponse(l *Ledger) timesheet.WeekResponse {
	w := l.Week()
	resp := timesheet.WeekResponse{
		ID:                 w.ID,
		UserID:             w.UserID,
		WeekStart:          w.WeekStart,
		Cells:              w.Cells,
		DayTotals:          l.DayTotals(),
		WeekTotalMinutes:   w.TotalMinutes,
		Status:             w.Status,
		WeekendOverrides:   w.WeekendOverrides,
		MissingReasonDates: w.MissingReasonDates,
	}
	if resp.WeekendOverrides == nil {
		resp.WeekendOverrides = []string{}
	}
	if w.SubmittedAt != nil {
		at := w.SubmittedAt.In(l.rules.Location).Format(time.RFC3339)
		resp.SubmittedAt = &at
	}
	return resp
}

// Service is the concrete timesheet service. It also serves as the approval
// source of weekly KPI rows.
type Service interface {
	timesheet.TimesheetService
	kpi.WeekApprovalSource
}

func NewTimesheetService(
	orgRepo organization.OrganizationRepository,
	memberRepo organization.MemberRepository,
	weekRepo timesheet.WeekRepository,
	opts ...Option,
) Service {
	s := &TimesheetServiceImpl{
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		weekRepo:   weekRepo,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
