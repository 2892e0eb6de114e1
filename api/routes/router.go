package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/freightquote-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/analytics"
	authcontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/auth"
	contractcontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/contracts"
	outboxcontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/outbox"
	quotationcontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/quotations"
	salesrepcontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/salesreps"
	wizardcontrollers "github.com/angelmondragon/freightquote-backend/api/controllers/wizard"
	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/internal/analytics"
	"github.com/angelmondragon/freightquote-backend/internal/salesreps"
	"github.com/angelmondragon/freightquote-backend/internal/wizard"
	"github.com/angelmondragon/freightquote-backend/pkg/auth/session"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
)

// ClientDirectory lists the known clients.
type ClientDirectory interface {
	List(ctx context.Context) ([]string, error)
}

// KeyValueStore backs the login throttle and the idempotency replay cache.
type KeyValueStore interface {
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps is everything the HTTP surface calls into.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Checks   map[string]redis.Pinger
	Redis    KeyValueStore
	Sessions session.AccessSessionChecker

	SalesReps  salesreps.Service
	Clients    ClientDirectory
	Wizard     wizard.Service
	Contracts  contractcontrollers.Desk
	Quotations quotationcontrollers.Lister
	Audit      quotationcontrollers.AuditLog
	Analytics  analytics.Service
	Outbox     outboxcontrollers.DeadLetterReader

	// Metrics serves the Prometheus scrape endpoint when set.
	Metrics http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	refreshPolicy := middleware.NewAuthRateLimitPolicy(
		"refresh",
		cfg.AuthRateLimit.RefreshWindow,
		cfg.AuthRateLimit.RefreshIPLimit,
		0,
	)
	idempotent := middleware.Idempotency(d.Redis, middleware.ReplayTTL, logg)
	submitOnce := middleware.Idempotency(d.Redis, middleware.SubmitReplayTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.Checks, logg))
	})

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.Ping("public"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", authcontrollers.AuthLogin(d.SalesReps, logg))
			r.With(middleware.AuthRateLimit(refreshPolicy, d.Redis, logg)).Post("/refresh", authcontrollers.AuthRefresh(d.SalesReps, logg))
			r.Post("/logout", authcontrollers.AuthLogout(d.SalesReps, cfg.JWT, logg))
			r.With(middleware.Auth(cfg.JWT, d.Sessions, logg)).Get("/me", authcontrollers.AuthMe(d.SalesReps, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

			r.Get("/ping", controllers.Ping("private"))
			r.Get("/clients", controllers.ClientsList(d.Clients, logg))

			r.Route("/wizard/sessions", func(r chi.Router) {
				r.With(idempotent).Post("/", wizardcontrollers.Start(d.Wizard, logg))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", wizardcontrollers.Get(d.Wizard, logg))
					r.Delete("/", wizardcontrollers.Abandon(d.Wizard, logg))
					r.Post("/client", wizardcontrollers.SelectClient(d.Wizard, logg))
					r.Post("/service-type", wizardcontrollers.SelectService(d.Wizard, logg))

					// set-style writes repeat safely; everything that adds, removes or moves needs a key
					r.Put("/draft", wizardcontrollers.ReplaceDraft(d.Wizard, logg))
					r.Post("/draft/files/{field}", wizardcontrollers.StageFiles(d.Wizard, cfg.Staging.MaxUploadMB, logg))
					r.With(idempotent).Post("/draft/{collection}", wizardcontrollers.AppendRow(d.Wizard, logg))
					r.With(idempotent).Delete("/draft/{collection}/{index}", wizardcontrollers.RemoveRow(d.Wizard, logg))
					r.With(idempotent).Post("/draft/{collection}/{index}/duplicate", wizardcontrollers.DuplicateRow(d.Wizard, logg))
					r.Get("/fields", wizardcontrollers.Fields(d.Wizard, logg))
					r.Get("/validation", wizardcontrollers.Validate(d.Wizard, logg))

					r.With(idempotent).Post("/services", wizardcontrollers.SaveService(d.Wizard, logg))
					r.With(idempotent).Post("/services/{index}/edit", wizardcontrollers.EditService(d.Wizard, logg))
					r.With(idempotent).Delete("/services/{index}", wizardcontrollers.RemoveService(d.Wizard, logg))
					r.With(idempotent).Post("/add-another", wizardcontrollers.AddAnother(d.Wizard, logg))
					r.With(idempotent).Post("/back", wizardcontrollers.Back(d.Wizard, logg))
					r.With(submitOnce).Post("/finalize", wizardcontrollers.Finalize(d.Wizard, logg))
				})
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", contractcontrollers.Search(d.Contracts, logg))
				r.Get("/options", contractcontrollers.Options(d.Contracts, logg))
				r.With(submitOnce).Post("/quotations", contractcontrollers.Submit(d.Contracts, logg))
				r.Get("/quotations/{requestID}/document", contractcontrollers.Document(d.Contracts, logg))
			})

			r.Route("/quotations", func(r chi.Router) {
				r.Get("/", quotationcontrollers.Requested(d.Quotations, logg))
				r.Get("/contracts", quotationcontrollers.Contracts(d.Quotations, cfg.App.Location(), logg))
				r.With(middleware.RequireRole(logg, enums.RoleManager)).Get("/recent", quotationcontrollers.Recent(d.Audit, logg))
			})

			r.Get("/analytics/quotations", analyticscontrollers.QuotationAnalytics(d.Analytics, logg))

			r.Route("/salesreps", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleManager))
				r.Get("/", salesrepcontrollers.List(d.SalesReps, logg))
				r.With(idempotent).Post("/", salesrepcontrollers.Register(d.SalesReps, logg))
				r.Post("/{id}/activate", salesrepcontrollers.SetActive(d.SalesReps, true, logg))
				r.Post("/{id}/deactivate", salesrepcontrollers.SetActive(d.SalesReps, false, logg))
				r.Get("/ping", controllers.Ping("manager"))
			})

			r.Route("/outbox/dead-letters", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleManager))
				r.Get("/", outboxcontrollers.ListDeadLetters(d.Outbox, logg))
				r.Get("/{eventID}", outboxcontrollers.GetDeadLetter(d.Outbox, logg))
			})
		})
	})

	return r
}
