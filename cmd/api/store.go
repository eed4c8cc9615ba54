package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/organization"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	"github.com/jackc/pgx/v5"
)

type repositories struct {
	orgs      organization.OrganizationRepository
	members   organization.MemberRepository
	events    punch.EventRepository
	locker    punch.UserLocker
	weeks     timesheet.WeekRepository
	snapshots kpi.SnapshotRepository
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config) (*repositories, error) {
	var seed *config.Seed
	if cfg.Store.SeedFile != "" {
		var err error
		seed, err = config.LoadSeed(cfg.Store.SeedFile)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return openMemoryStore(seed)
	case config.StoreDriverPostgres:
		return openPostgresStore(ctx, cfg, seed)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

func openMemoryStore(seed *config.Seed) (*repositories, error) {
	store := memory.NewStore()
	orgs, err := seed.OrganizationList()
	if err != nil {
		return nil, err
	}
	for _, org := range orgs {
		store.PutOrganization(org)
	}
	for _, m := range seed.MemberList() {
		store.PutMember(m)
	}
	slog.Info("Using memory store", "organizations", len(orgs), "members", len(seed.Members))

	return &repositories{
		orgs:      memory.NewOrganizationRepository(store),
		members:   memory.NewMemberRepository(store),
		events:    memory.NewEventRepository(store),
		locker:    memory.NewUserLocker(store),
		weeks:     memory.NewWeekRepository(store),
		snapshots: memory.NewSnapshotRepository(store),
		close:     func() {},
	}, nil
}

func openPostgresStore(ctx context.Context, cfg *config.Config, seed *config.Seed) (*repositories, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	orgRepo := postgresql.NewOrganizationRepository(db)
	memberRepo := postgresql.NewMemberRepository(db)

	if seed != nil {
		err := postgresql.WithTransaction(ctx, db, func(tx pgx.Tx) error {
			txCtx := postgresql.ContextWithTx(ctx, tx)
			orgs, err := seed.OrganizationList()
			if err != nil {
				return err
			}
			for _, org := range orgs {
				if err := orgRepo.Upsert(txCtx, org); err != nil {
					return err
				}
			}
			for _, m := range seed.MemberList() {
				if err := memberRepo.Upsert(txCtx, m); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply seed: %w", err)
		}
		slog.Info("Applied seed", "organizations", len(seed.Organizations), "members", len(seed.Members))
	}

	return &repositories{
		orgs:      orgRepo,
		members:   memberRepo,
		events:    postgresql.NewPunchEventRepository(db),
		locker:    postgresql.NewUserLocker(db),
		weeks:     postgresql.NewTimesheetWeekRepository(db),
		snapshots: postgresql.NewKPISnapshotRepository(db),
		close:     db.Close,
	}, nil
}
