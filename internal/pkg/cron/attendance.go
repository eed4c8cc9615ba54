package cron

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

// AttendanceJobs are the periodic jobs of the engine. Both run hourly and
// act only in the first hour of the relevant day in each organization's timezone.
type AttendanceJobs struct {
	orgRepo          organization.OrganizationRepository
	kpiService       kpi.KPIService
	timesheetService timesheet.TimesheetService
	now              func() time.Time
}

func NewAttendanceJobs(
	orgRepo organization.OrganizationRepository,
	kpiService kpi.KPIService,
	timesheetService timesheet.TimesheetService,
	now func() time.Time,
) *AttendanceJobs {
	if now == nil {
		now = time.Now
	}
	return &AttendanceJobs{
		orgRepo:          orgRepo,
		kpiService:       kpiService,
		timesheetService: timesheetService,
		now:              now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{Name: "record_daily_kpi_snapshots", Interval: time.Hour, Timeout: 10 * time.Minute, Fn: j.RecordDailySnapshots})
	scheduler.AddJob(Job{Name: "auto_send_timesheets", Interval: time.Hour, Timeout: 10 * time.Minute, Fn: j.AutoSendTimesheets})
}

// RecordDailySnapshots stores yesterday's KPI snapshot of every organization
// whose local clock is in the first hour of the day.
func (j *AttendanceJobs) RecordDailySnapshots(ctx context.Context) error {
	return j.forEachOrg(ctx, func(ctx context.Context, org organization.Organization, local time.Time) error {
		if local.Hour() != 0 {
			return nil
		}
		yesterday := local.AddDate(0, 0, -1).Format(calendar.DateLayout)
		_, err := j.kpiService.RecordDailySnapshot(ctx, org.ID, yesterday)
		return err
	})
}

// AutoSendTimesheets auto-sends last week's draft timesheets of every
// organization whose local clock is in the first hour of Monday.
func (j *AttendanceJobs) AutoSendTimesheets(ctx context.Context) error {
	return j.forEachOrg(ctx, func(ctx context.Context, org organization.Organization, local time.Time) error {
		if local.Weekday() != time.Monday || local.Hour() != 0 {
			return nil
		}
		sent, err := j.timesheetService.AutoSendDueWeeks(ctx, org.ID)
		if err != nil {
			return err
		}
		slog.Info("Cron: Auto-sent timesheet weeks", "org_id", org.ID, "count", sent)
		return nil
	})
}

// forEachOrg keeps going after a failing organization and returns all failures.
func (j *AttendanceJobs) forEachOrg(ctx context.Context, fn func(ctx context.Context, org organization.Organization, local time.Time) error) error {
	orgs, err := j.orgRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	now := j.now()
	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		loc, err := org.Location()
		if err != nil {
			slog.Error("Cron: Skipping organization", "org_id", org.ID, "error", err)
			errs = append(errs, fmt.Errorf("organization %s: %w", org.ID, err))
			continue
		}
		if err := fn(ctx, org, now.In(loc)); err != nil {
			slog.Error("Cron: Organization job failed", "org_id", org.ID, "error", err)
			errs = append(errs, fmt.Errorf("organization %s: %w", org.ID, err))
		}
	}
	return errors.Join(errs...)
}
