package punch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/session"
	"github.com/google/uuid"
)

// EventPunchRecorded is published on the organization topic after every appended punch.
const EventPunchRecorded = "punch.recorded"

// DefaultConfirmWindow is how recent the previous punch must be to require confirmation.
const DefaultConfirmWindow = 60 * time.Second

type PunchServiceImpl struct {
	orgRepo       organization.OrganizationRepository
	memberRepo    organization.MemberRepository
	eventRepo     punch.EventRepository
	locker        punch.UserLocker
	hub           *sse.Hub
	now           func() time.Time
	confirmWindow time.Duration
}

// Option configures the punch service.
type Option func(*PunchServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *PunchServiceImpl) { s.now = now }
}

// WithConfirmWindow overrides DefaultConfirmWindow.
func WithConfirmWindow(d time.Duration) Option {
	return func(s *PunchServiceImpl) {
		if d > 0 {
			s.confirmWindow = d
		}
	}
}

// WithHub publishes recorded punches to the live board stream.
func WithHub(hub *sse.Hub) Option {
	return func(s *PunchServiceImpl) { s.hub = hub }
}

func (s *PunchServiceImpl) loadContext(ctx context.Context, userID, orgID string) (organization.Organization, *time.Location, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return organization.Organization{}, nil, err
	}
	loc, err := org.Location()
	if err != nil {
		return organization.Organization{}, nil, fmt.Errorf("organization %s: %w", org.ID, err)
	}
	if _, err := s.memberRepo.GetByUserID(ctx, orgID, userID); err != nil {
		return organization.Organization{}, nil, err
	}
	return org, loc, nil
}

func (s *PunchServiceImpl) todayEvents(ctx context.Context, userID string, now time.Time, loc *time.Location) ([]punch.Event, error) {
	start, end := calendar.DayBounds(now, loc)
	events, err := s.eventRepo.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's punch events: %w", err)
	}
	return events, nil
}

// SubmitPunch implements punch.PunchService.
func (s *PunchServiceImpl) SubmitPunch(ctx context.Context, req punch.SubmitPunchRequest) (punch.PunchResponse, error) {
	if err := req.Validate(); err != nil {
		return punch.PunchResponse{}, err
	}

	org, loc, err := s.loadContext(ctx, req.UserID, req.OrgID)
	if err != nil {
		return punch.PunchResponse{}, err
	}

	var (
		saved    punch.Event
		newState punch.State
	)
	err = s.locker.WithUserLock(ctx, req.UserID, func(ctx context.Context) error {
		now := s.now().UTC()

		events, err := s.todayEvents(ctx, req.UserID, now, loc)
		if err != nil {
			return err
		}

		current := session.DeriveState(events)
		newState, err = current.Next(req.Type)
		if err != nil {
			slog.Debug("Rejected punch", "user_id", req.UserID, "type", req.Type, "state", current, "error", err)
			return err
		}

		if !req.Force {
			latest, err := s.eventRepo.LatestByUser(ctx, req.UserID)
			switch {
			case err == nil:
				if now.Sub(latest.Timestamp) < s.confirmWindow {
					slog.Debug("Punch needs confirmation", "user_id", req.UserID, "type", req.Type, "previous_at", latest.Timestamp)
					return punch.ErrConfirmationRequired
				}
			case !errors.Is(err, punch.ErrEventNotFound):
				return fmt.Errorf("failed to get latest punch: %w", err)
			}
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate punch id: %w", err)
		}

		event := punch.Event{
			ID:        id.String(),
			UserID:    req.UserID,
			OrgID:     org.ID,
			Type:      req.Type,
			Timestamp: now,
			Note:      req.Note,
			Geo:       req.Geo,
			CreatedAt: now,
		}
		if req.Type == punch.TypeIn && event.Geo == nil && org.DefaultGeofence != nil {
			geo := *org.DefaultGeofence
			event.Geo = &geo
		}

		saved, err = s.eventRepo.Append(ctx, event)
		if err != nil {
			return fmt.Errorf("failed to append punch event: %w", err)
		}
		return nil
	})
	if err != nil {
		return punch.PunchResponse{}, err
	}

	slog.Info("Recorded punch", "user_id", saved.UserID, "org_id", saved.OrgID, "type", saved.Type, "event_id", saved.ID)

	resp := toPunchResponse(saved, newState, loc)
	if req.Geo != nil && org.DefaultGeofence != nil {
		checkGeofence(&resp, *req.Geo, *org.DefaultGeofence)
		if *resp.OutsideGeofence {
			slog.Info("Punch outside geofence", "user_id", saved.UserID, "event_id", saved.ID, "distance_meters", *resp.GeofenceDistanceMeters)
		}
	}
	if s.hub != nil {
		s.hub.Publish(org.ID, sse.Event{Event: EventPunchRecorded, Data: resp})
	}
	return resp, nil
}

// GetStatus implements punch.PunchService.
func (s *PunchServiceImpl) GetStatus(ctx context.Context, userID string, orgID string) (punch.StatusResponse, error) {
	org, loc, err := s.loadContext(ctx, userID, orgID)
	if err != nil {
		return punch.StatusResponse{}, err
	}

	now := s.now().UTC()
	events, err := s.todayEvents(ctx, userID, now, loc)
	if err != nil {
		return punch.StatusResponse{}, err
	}

	res := session.Reconstruct(events, session.OptionsFor(org, loc))
	resp := punch.StatusResponse{
		UserID: userID,
		State:  session.DeriveState(events),
	}
	if open := res.OpenSession; open != nil {
		resp.SessionStart = formatLocal(open.Start, loc)
		if open.BreakStart != nil {
			resp.BreakStart = formatLocal(*open.BreakStart, loc)
		}
		resp.ElapsedMinutes = open.ElapsedMinutes(now)
	}

	latest, err := s.eventRepo.LatestByUser(ctx, userID)
	switch {
	case err == nil:
		resp.LastPunchAt = formatLocal(latest.Timestamp, loc)
	case !errors.Is(err, punch.ErrEventNotFound):
		return punch.StatusResponse{}, fmt.Errorf("failed to get latest punch: %w", err)
	}

	return resp, nil
}

func formatLocal(t time.Time, loc *time.Location) *string {
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

// checkGeofence flags a punch whose position, widened by its reported
// accuracy radius, cannot lie inside the fence. Punches are never rejected for it.
func checkGeofence(resp *punch.PunchResponse, at, fence punch.Geo) {
	distance := math.Round(utils.HaversineMeters(fence.Lat, fence.Lng, at.Lat, at.Lng)*10) / 10
	outside := distance > fence.RadiusMeters+at.RadiusMeters
	resp.GeofenceDistanceMeters = &distance
	resp.OutsideGeofence = &outside
}

func toPunchResponse(e punch.Event, state punch.State, loc *time.Location) punch.PunchResponse {
	return punch.PunchResponse{
		ID:             e.ID,
		UserID:         e.UserID,
		OrgID:          e.OrgID,
		Type:           e.Type,
		Timestamp:      e.Timestamp.UTC().Format(time.RFC3339),
		LocalTimestamp: e.Timestamp.In(loc).Format(time.RFC3339),
		Note:           e.Note,
		Geo:            e.Geo,
		State:          state,
	}
}

func NewPunchService(
	orgRepo organization.OrganizationRepository,
	memberRepo organization.MemberRepository,
	eventRepo punch.EventRepository,
	locker punch.UserLocker,
	opts ...Option,
) punch.PunchService {
	s := &PunchServiceImpl{
		orgRepo:       orgRepo,
		memberRepo:    memberRepo,
		eventRepo:     eventRepo,
		locker:        locker,
		now:           time.Now,
		confirmWindow: DefaultConfirmWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
