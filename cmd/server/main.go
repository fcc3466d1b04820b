package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fundadmin/internal/amfi"
	"fundadmin/internal/api"
	"fundadmin/internal/config"
	"fundadmin/internal/database"
	"fundadmin/internal/repository"
	"fundadmin/internal/scheduler"
	"fundadmin/internal/service"
)

func main() {
	log := logrus.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	location, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("failed to load business timezone")
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	log.WithField("path", cfg.Database.Path).Info("connected to database")

	// Create repositories
	amcRepo := repository.NewAmcRepository(db)
	fundRepo := repository.NewFundRepository(db)
	navRepo := repository.NewNavRepository(db)

	// Create services
	feedClient := amfi.NewFeedClientWithTimeout(cfg.Feed.URLTemplate, cfg.Feed.Timeout)
	feedClient.MaxAttempts = cfg.Feed.MaxAttempts
	feedClient.RetryDelay = cfg.Feed.RetryDelay

	systemService := service.NewSystemService(db, navRepo)
	masterService := service.NewMasterService(amcRepo, fundRepo, navRepo)
	ingestService := service.NewIngestService(
		db,
		amcRepo,
		fundRepo,
		navRepo,
		feedClient,
		cfg.Ingest.BatchSize,
		location,
		log,
	)

	// Daily ingestion schedule
	sched, err := scheduler.New(ingestService, cfg.Ingest.Schedule, location, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create scheduler")
	}

	// Create router
	router := api.NewRouter(systemService, masterService, ingestService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sched.Start()
		<-ctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}

	log.Info("server exited")
}
