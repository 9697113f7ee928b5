package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/info-evry/astro-ndi-sub000/internal/archive"
	archivehandler "github.com/info-evry/astro-ndi-sub000/internal/archive/handler"
	"github.com/info-evry/astro-ndi-sub000/internal/archive/metrics"
	archiveservice "github.com/info-evry/astro-ndi-sub000/internal/archive/service"
	"github.com/info-evry/astro-ndi-sub000/internal/archive/worker"
	"github.com/info-evry/astro-ndi-sub000/internal/audit"
	"github.com/info-evry/astro-ndi-sub000/internal/eventyear"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/config"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/httpserver"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/logger"
	"github.com/info-evry/astro-ndi-sub000/internal/platform/postgres"
	platformredis "github.com/info-evry/astro-ndi-sub000/internal/platform/redis"
	"github.com/info-evry/astro-ndi-sub000/internal/registration"
	"github.com/info-evry/astro-ndi-sub000/internal/reset"
	resethandler "github.com/info-evry/astro-ndi-sub000/internal/reset/handler"
	"github.com/info-evry/astro-ndi-sub000/internal/settings"
	httptransport "github.com/info-evry/astro-ndi-sub000/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	// Schema setup is best-effort: deployments where the registration
	// frontend owns the database run this service without DDL rights.
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Warn("schema setup skipped", "error", err.Error())
	}

	regStore := registration.NewPostgres(db)
	settingsStore := settings.NewPostgres(db)
	archiveStore := archive.NewPostgres(db)
	auditPublisher := audit.NewPublisher(audit.NewPostgres(db))

	resolver := eventyear.New(settingsStore, regStore, log)
	archiveMetrics := metrics.New()

	var serviceOpts []archiveservice.Option
	redisClient, err := platformredis.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		serviceOpts = append(serviceOpts,
			archiveservice.WithSummaryCache(archiveservice.NewSummaryCache(redisClient, log)))
	}

	archiveService := archiveservice.New(archiveStore, regStore, settingsStore,
		resolver, archiveMetrics, auditPublisher, log, serviceOpts...)
	resetService := reset.New(regStore, archiveService, archiveMetrics, auditPublisher, log)

	router := httptransport.NewRouter(
		archivehandler.New(archiveService, log),
		resethandler.New(resetService, log),
		cfg.AdminToken,
		log,
	)
	srv := httpserver.New(cfg.Addr, router)

	sweeper := worker.New(func(ctx context.Context) (int, error) {
		results, err := archiveService.CheckAllExpirations(ctx)
		if err != nil {
			return 0, err
		}
		applied := 0
		for _, r := range results {
			if r.Updated {
				applied++
			}
		}
		return applied, nil
	}, cfg.SweepInterval, log)
	go func() {
		if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
			log.Error("expiration sweeper stopped", "error", err.Error())
		}
	}()

	log.Info("starting registration archival service", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
