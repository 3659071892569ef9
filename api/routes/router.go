package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creditpool/creditpool-backend/api/controllers"
	"github.com/creditpool/creditpool-backend/api/middleware"
	"github.com/creditpool/creditpool-backend/internal/admin"
	"github.com/creditpool/creditpool-backend/internal/collections"
	"github.com/creditpool/creditpool-backend/internal/ledger"
	"github.com/creditpool/creditpool-backend/internal/likes"
	"github.com/creditpool/creditpool-backend/pkg/config"
	"github.com/creditpool/creditpool-backend/pkg/enums"
	"github.com/creditpool/creditpool-backend/pkg/logger"
	"github.com/creditpool/creditpool-backend/pkg/metrics"
	pkgredis "github.com/creditpool/creditpool-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the router mounts.
// Nil stores disable the middleware that needs them.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	RateLimiter middleware.RateLimiterStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Ledger      ledger.Service
	Collections collections.Service
	Likes       likes.Registry
	Admin       admin.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.Logging(logg, deps.HTTPMetrics),
	)

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitRequests)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(apiPolicy, deps.RateLimiter, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletGet(deps.Ledger, logg))
			r.Post("/deposits", controllers.WalletDeposit(deps.Ledger, logg))
			r.Get("/transactions", controllers.WalletTransactions(deps.Ledger, logg))
		})

		r.Route("/collections", func(r chi.Router) {
			r.Post("/", controllers.CollectionCreate(deps.Collections, logg))
			r.Get("/", controllers.CollectionList(deps.Collections, logg))
			r.Get("/liked", controllers.LikedCollections(deps.Likes, logg))
			r.Route("/{collectionId}", func(r chi.Router) {
				r.Get("/", controllers.CollectionGet(deps.Collections, deps.Likes, logg))
				r.Patch("/", controllers.CollectionEdit(deps.Collections, logg))
				r.Post("/contributions", controllers.ContributionCreate(deps.Ledger, logg))
				r.Get("/contributions", controllers.ContributionList(deps.Ledger, deps.Collections, logg))
				r.Post("/like", controllers.LikeToggle(deps.Likes, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
		r.Use(middleware.RateLimit(apiPolicy, deps.RateLimiter, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", controllers.AdminListWallets(deps.Admin, logg))
			r.Put("/{userId}/balance", controllers.AdminAdjustBalance(deps.Admin, logg))
			r.Get("/{userId}/audit", controllers.AdminWalletAudit(deps.Admin, logg))
		})
		r.Route("/collections", func(r chi.Router) {
			r.Get("/", controllers.AdminListCollections(deps.Admin, logg))
			r.Put("/{collectionId}/status", controllers.AdminSetCollectionStatus(deps.Admin, logg))
			r.Delete("/{collectionId}", controllers.AdminDeleteCollection(deps.Admin, logg))
		})
	})

	return r
}
