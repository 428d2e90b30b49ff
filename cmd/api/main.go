package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdantlabs/canopy-backend/api/routes"
	"github.com/verdantlabs/canopy-backend/internal/auth"
	"github.com/verdantlabs/canopy-backend/internal/catalog"
	"github.com/verdantlabs/canopy-backend/internal/dispensaries"
	"github.com/verdantlabs/canopy-backend/internal/insights"
	"github.com/verdantlabs/canopy-backend/internal/orders"
	"github.com/verdantlabs/canopy-backend/internal/reports"
	"github.com/verdantlabs/canopy-backend/internal/users"
	"github.com/verdantlabs/canopy-backend/pkg/auth/session"
	"github.com/verdantlabs/canopy-backend/pkg/config"
	"github.com/verdantlabs/canopy-backend/pkg/db"
	"github.com/verdantlabs/canopy-backend/pkg/logger"
	"github.com/verdantlabs/canopy-backend/pkg/metrics"
	"github.com/verdantlabs/canopy-backend/pkg/migrate"
	"github.com/verdantlabs/canopy-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	dispensaryRepo := dispensaries.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	importer, err := catalog.NewImporter(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product importer", err)
		os.Exit(1)
	}

	dispensaryService, err := dispensaries.NewService(dispensaryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispensary service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:         orderRepo,
		Applier:      orders.NewTxStore(dbClient, orderRepo, catalogRepo),
		Catalog:      catalogRepo,
		Dispensaries: dispensaryRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	var insightsService insights.Service
	if cfg.Insights.APIKey != "" {
		gateway, err := insights.NewOpenAIGateway(cfg.Insights, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create insights gateway", err)
			os.Exit(1)
		}
		insightsService, err = insights.NewService(insights.ServiceParams{
			Gateway:      gateway,
			Orders:       orderRepo,
			Catalog:      catalogRepo,
			Dispensaries: dispensaryRepo,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create insights service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "insights api key not configured, insights endpoints disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:            cfg,
			Logger:            logg,
			DB:                dbClient,
			Redis:             redisClient,
			Metrics:           metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			Sessions:          sessionManager,
			AuthService:       authService,
			UserService:       userService,
			CatalogService:    catalogService,
			Importer:          importer,
			DispensaryService: dispensaryService,
			OrderService:      orderService,
			ReportService:     reportService,
			InsightsService:   insightsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
