package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attendly/certserver/internal/certify/render"
	"github.com/attendly/certserver/internal/certify/service"
	"github.com/attendly/certserver/internal/certify/store/sqlite"
	"github.com/attendly/certserver/internal/config"
	"github.com/attendly/certserver/internal/db"
	"github.com/attendly/certserver/internal/httpapi"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "certserver ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev db: %v", err)
		}
	}

	writer := db.NewWorker(sqlDB)
	defer writer.Close()

	events := sqlite.NewEventStore(sqlDB, writer)
	registrations := sqlite.NewRegistrationStore(sqlDB, writer)
	claims := sqlite.NewClaimStore(sqlDB, writer)
	artifacts := sqlite.NewArtifactStore(sqlDB, writer)
	reports := sqlite.NewReportStore(sqlDB, writer)

	// Compositor
	renderer, err := render.New()
	if err != nil {
		logger.Fatalf("init renderer: %v", err)
	}

	// Services
	policy := service.WindowPolicy{Duration: time.Duration(cfg.ClaimWindowSeconds) * time.Second}
	eventSvc := service.NewEventService(events, renderer, policy, cfg.BaseURL, nil)
	regSvc := service.NewRegistrationService(events, registrations, nil)
	claimSvc := service.NewClaimService(events, registrations, claims, artifacts, renderer, nil)
	reportSvc := service.NewReportService(events, reports)

	sweeper := service.NewClosureSweeper(reports, service.SweeperConfig{
		IntervalSeconds: cfg.SweepIntervalSeconds,
	}, logger, nil)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:              logger,
		Addr:                cfg.HTTPAddr,
		EventService:        eventSvc,
		RegistrationService: regSvc,
		ClaimService:        claimSvc,
		ReportService:       reportSvc,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
