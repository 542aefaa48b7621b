package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmoralesdev/casaworks-backend/api/controllers"
	escrowcontrollers "github.com/rmoralesdev/casaworks-backend/api/controllers/escrow"
	payoutcontrollers "github.com/rmoralesdev/casaworks-backend/api/controllers/payouts"
	webhookcontrollers "github.com/rmoralesdev/casaworks-backend/api/controllers/webhooks"
	"github.com/rmoralesdev/casaworks-backend/api/middleware"
	stripewebhook "github.com/rmoralesdev/casaworks-backend/internal/webhooks/stripe"
	"github.com/rmoralesdev/casaworks-backend/pkg/config"
	"github.com/rmoralesdev/casaworks-backend/pkg/db"
	"github.com/rmoralesdev/casaworks-backend/pkg/enums"
	"github.com/rmoralesdev/casaworks-backend/pkg/logger"
	"github.com/rmoralesdev/casaworks-backend/pkg/redis"
	"github.com/rmoralesdev/casaworks-backend/pkg/stripe"
)

// NewRouter assembles the HTTP surface: health and metrics, the signed
// webhook endpoint, and the authenticated booking/escrow/payout routes.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsRegistry *prometheus.Registry,
	escrowService escrowcontrollers.Service,
	payoutsService payoutcontrollers.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	webhookPolicy := middleware.NewRateLimitPolicy(
		"webhook",
		cfg.RateLimit.WebhookWindow,
		cfg.RateLimit.WebhookIPLimit,
	)
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimit(webhookPolicy, redisClient, logg))
		r.Post("/stripe", webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/bookings/{bookingId}", func(r chi.Router) {
			r.Post("/respond", escrowcontrollers.Respond(escrowService, logg))
			r.Post("/complete", escrowcontrollers.Complete(escrowService, logg))
			r.Get("/events", escrowcontrollers.Events(escrowService, logg))
		})

		r.Route("/escrow/{bookingId}", func(r chi.Router) {
			r.Post("/deposit", escrowcontrollers.PayDeposit(escrowService, logg))
			r.Post("/start", escrowcontrollers.StartWork(escrowService, logg))
			r.Post("/propose-final", escrowcontrollers.ProposeFinal(escrowService, logg))
			r.Post("/approve-final", escrowcontrollers.ApproveFinal(escrowService, logg))
			r.Post("/settle", escrowcontrollers.Settle(escrowService, logg))
			r.Post("/release-retainage", escrowcontrollers.ReleaseRetainage(escrowService, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleProvider), logg))
			r.Post("/onboard", payoutcontrollers.Onboard(payoutsService, logg))
			r.Get("/status", payoutcontrollers.Status(payoutsService, logg))
		})
	})

	return r
}
