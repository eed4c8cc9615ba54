package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/sse"
	kpiService "github.com/cmlabs-hris/attendance-engine-go/internal/service/kpi"
	punchService "github.com/cmlabs-hris/attendance-engine-go/internal/service/punch"
	timesheetService "github.com/cmlabs-hris/attendance-engine-go/internal/service/timesheet"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}
	hub := sse.NewHub()

	punchSvc := punchService.NewPunchService(
		repos.orgs,
		repos.members,
		repos.events,
		repos.locker,
		punchService.WithConfirmWindow(cfg.Punch.ConfirmWindow),
		punchService.WithHub(hub),
	)
	timesheetSvc := timesheetService.NewTimesheetService(repos.orgs, repos.members, repos.weeks)
	kpiSvc := kpiService.NewKPIService(
		repos.orgs,
		repos.members,
		repos.events,
		repos.snapshots,
		kpiService.WithWorkers(cfg.KPI.Workers),
		kpiService.WithApprovals(timesheetSvc),
	)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(repos.orgs, kpiSvc, timesheetSvc, time.Now).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
			Env:            cfg.App.Env,
			Version:        cfg.App.Version,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.NewPunchHandler(punchSvc, JWTService, hub),
		appHTTP.NewKPIHandler(kpiSvc),
		appHTTP.NewTimesheetHandler(timesheetSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.Store.Driver, "env", cfg.App.Env)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
