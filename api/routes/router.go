package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantlabs/canopy-backend/api/controllers"
	"github.com/verdantlabs/canopy-backend/api/middleware"
	"github.com/verdantlabs/canopy-backend/internal/auth"
	"github.com/verdantlabs/canopy-backend/internal/catalog"
	"github.com/verdantlabs/canopy-backend/internal/dispensaries"
	"github.com/verdantlabs/canopy-backend/internal/insights"
	"github.com/verdantlabs/canopy-backend/internal/orders"
	"github.com/verdantlabs/canopy-backend/internal/reports"
	"github.com/verdantlabs/canopy-backend/internal/users"
	"github.com/verdantlabs/canopy-backend/pkg/auth/session"
	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/enums"
	"github.com/verdantlabs/canopy-backend/pkg/logger"
	"github.com/verdantlabs/canopy-backend/pkg/metrics"
	"github.com/verdantlabs/canopy-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      controllers.Pinger
	Redis   *redis.Client
	Metrics *metrics.HTTPMetrics

	Sessions session.AccessSessionChecker

	AuthService       auth.Service
	UserService       users.Service
	CatalogService    catalog.Service
	Importer          *catalog.Importer
	DispensaryService dispensaries.Service
	OrderService      orders.Service
	ReportService     reports.Service
	InsightsService   insights.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	readiness := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", controllers.ListTemplates(deps.CatalogService, logg))
			r.Post("/", controllers.CreateTemplate(deps.CatalogService, logg))
			r.Get("/{id}", controllers.GetTemplate(deps.CatalogService, logg))
			r.Patch("/{id}", controllers.UpdateTemplate(deps.CatalogService, logg))
			r.Delete("/{id}", controllers.DeleteTemplate(deps.CatalogService, logg))
		})

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", controllers.CreateBatch(deps.CatalogService, logg))
			r.Get("/{id}", controllers.GetBatch(deps.CatalogService, logg))
			r.Patch("/{id}", controllers.UpdateBatch(deps.CatalogService, logg))
			r.Delete("/{id}", controllers.DeleteBatch(deps.CatalogService, logg))
		})

		r.Post("/products/import", controllers.ImportProducts(deps.Importer, logg))

		r.Route("/dispensaries", func(r chi.Router) {
			r.Get("/", controllers.ListDispensaries(deps.DispensaryService, logg))
			r.Post("/", controllers.CreateDispensary(deps.DispensaryService, logg))
			r.Get("/{id}", controllers.GetDispensary(deps.DispensaryService, logg))
			r.Patch("/{id}", controllers.UpdateDispensary(deps.DispensaryService, logg))
			r.Delete("/{id}", controllers.DeleteDispensary(deps.DispensaryService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.OrderService, logg))
			r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
			r.Get("/{id}", controllers.GetOrder(deps.OrderService, logg))
			r.Patch("/{id}/payment-status", controllers.UpdateOrderPaymentStatus(deps.OrderService, logg))
			r.Patch("/{id}/fulfillment", controllers.UpdateOrderFulfillment(deps.OrderService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", controllers.SalesReport(deps.ReportService, logg))
			r.Get("/sales/csv", controllers.SalesReportCSV(deps.ReportService, logg))
		})

		r.Route("/insights", func(r chi.Router) {
			r.Post("/sales", controllers.AskSalesQuestion(deps.InsightsService, logg))
			r.Post("/business", controllers.AnalyzeBusiness(deps.InsightsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdministrator), logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(deps.UserService, logg))
			r.Post("/", controllers.CreateUser(deps.UserService, logg))
			r.Patch("/{id}/active", controllers.SetUserActive(deps.UserService, logg))
			r.Post("/{id}/reset-password", controllers.ResetUserPassword(deps.UserService, logg))
		})
	})

	return r
}
