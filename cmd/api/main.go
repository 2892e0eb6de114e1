package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/freightquote-backend/api/routes"
	"github.com/angelmondragon/freightquote-backend/internal/analytics"
	"github.com/angelmondragon/freightquote-backend/internal/audit"
	"github.com/angelmondragon/freightquote-backend/internal/clients"
	"github.com/angelmondragon/freightquote-backend/internal/contracts"
	"github.com/angelmondragon/freightquote-backend/internal/quotations"
	"github.com/angelmondragon/freightquote-backend/internal/requestid"
	"github.com/angelmondragon/freightquote-backend/internal/salesreps"
	"github.com/angelmondragon/freightquote-backend/internal/submission"
	"github.com/angelmondragon/freightquote-backend/internal/wizard"
	"github.com/angelmondragon/freightquote-backend/pkg/auth/session"
	"github.com/angelmondragon/freightquote-backend/pkg/bigquery"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/drive"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
	"github.com/angelmondragon/freightquote-backend/pkg/migrate"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
	"github.com/angelmondragon/freightquote-backend/pkg/staging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	cfg.Service.Kind = "api"

	logg = logger.ForService("api", cfg.App)
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	sheetsClient, err := sheets.NewClient(ctx, cfg.GCP, cfg.Sheets, logg)
	requireResource(ctx, logg, "sheets", err)

	driveClient, err := drive.NewClient(ctx, cfg.GCP, cfg.Drive, logg)
	requireResource(ctx, logg, "drive", err)

	area, err := staging.New(cfg.Staging.Dir)
	requireResource(ctx, logg, "staging area", err)

	salesRepRepo := salesreps.NewRepository(dbClient.DB())
	salesRepService, err := salesreps.NewService(salesreps.ServiceParams{
		Repo:           salesRepRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "sales rep service", err)

	ids := requestid.NewGenerator(redisClient, sheetsClient, cfg.Sheets.TimeSpreadsheetID, cfg.Sheets.DurationWorksheet)

	clientDirectory, err := clients.NewService(sheetsClient, redisClient, cfg.Sheets.TimeSpreadsheetID, cfg.Sheets.ClientsWorksheet, cfg.Sheets.ClientsCacheTTL, logg)
	requireResource(ctx, logg, "client directory", err)

	recorder, err := audit.NewRecorder(dbClient, audit.NewRepository(dbClient.DB()), outbox.NewEmitter(outbox.NewRepository(dbClient.DB()), logg))
	requireResource(ctx, logg, "audit recorder", err)

	submissionMetrics := metrics.NewSubmissionMetrics(prometheus.DefaultRegisterer)

	coordinator, err := submission.NewCoordinator(submission.CoordinatorParams{
		Settings: submission.SettingsFromConfig(cfg),
		IDs:      ids,
		Sheets:   sheetsClient,
		Drive:    driveClient,
		Staging:  area,
		Clients:  clientDirectory,
		Audit:    recorder,
		Metrics:  submissionMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "submission coordinator", err)

	sessions, err := wizard.NewStore(redisClient, cfg.Submission.SessionTTL)
	requireResource(ctx, logg, "wizard session store", err)

	wizardService, err := wizard.NewService(wizard.ServiceParams{
		Store:       sessions,
		Staging:     area,
		Clients:     clientDirectory,
		Coordinator: coordinator,
		Locker:      redisClient,
		Logger:      logg,
	})
	requireResource(ctx, logg, "wizard service", err)

	catalog, err := contracts.NewSource(sheetsClient, redisClient, cfg.Sheets.ContractsCatalogID, cfg.Sheets.ContainersWorksheet, cfg.Sheets.ScrapWorksheet, cfg.Sheets.ContractsCacheTTL, logg)
	requireResource(ctx, logg, "contracts catalog", err)

	desk, err := contracts.NewDesk(contracts.DeskParams{
		Settings: contracts.SettingsFromConfig(cfg),
		Catalog:  catalog,
		IDs:      ids,
		Sheets:   sheetsClient,
		Audit:    recorder,
		Reps:     salesRepRepo,
		Metrics:  submissionMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "contracts desk", err)

	listings, err := quotations.NewService(sheetsClient, quotations.SettingsFromConfig(cfg))
	requireResource(ctx, logg, "quotation listings", err)

	// Analytics is optional: the endpoint answers 503 without BigQuery.
	var analyticsService analytics.Service
	if bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg); err != nil {
		logg.Warn(ctx, fmt.Sprintf("bigquery unavailable, analytics disabled: %v", err))
	} else {
		defer func() {
			if err := bqClient.Close(); err != nil {
				logg.Error(ctx, "error closing bigquery", err)
			}
		}()
		analyticsService, err = analytics.NewService(analytics.ServiceParams{
			BigQuery: bqClient,
			Project:  cfg.GCP.ProjectID,
			Dataset:  cfg.BigQuery.Dataset,
			Table:    cfg.BigQuery.QuotationsTable,
			Cache:    redisClient,
			CacheTTL: cfg.BigQuery.CacheTTL,
			Logger:   logg,
		})
		if err != nil {
			logg.Warn(ctx, fmt.Sprintf("analytics disabled: %v", err))
			analyticsService = nil
		}
	}

	handler := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Checks:   map[string]redis.Pinger{"db": dbClient, "redis": redisClient},
		Redis:    redisClient,
		Sessions: sessionManager,

		SalesReps:  salesRepService,
		Clients:    clientDirectory,
		Wizard:     wizardService,
		Contracts:  desk,
		Quotations: listings,
		Audit:      recorder,
		Analytics:  analyticsService,
		Outbox:     outbox.NewDeadLetters(dbClient.DB()),
		Metrics:    promhttp.Handler(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"addr":        addr,
		"instance":    id,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
		logg.Info(runCtx, "api server shut down gracefully")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
