package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parklite/internal/clock"
	"parklite/internal/config"
	"parklite/internal/db"
	httpserver "parklite/internal/http"
	"parklite/internal/http/handlers"
	"parklite/internal/http/middleware"
	redisstore "parklite/internal/redis"
	"parklite/internal/repository"
	"parklite/internal/service"
	libredis "parklite/libs/redis"
)

// App wires parklite dependencies.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph: storage, optional cache, services,
// routes and the HTTP server.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if cfg.Seed {
		if err := db.Seed(ctx, sqlDB, logger); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	var redisClient *redis.Client
	var activeCache service.ActiveSessionCache
	if cfg.RedisEnabled() {
		redisClient, err = libredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		activeCache = redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())
	} else {
		logger.Info("redis not configured, active session cache disabled")
	}

	userRepo := repository.NewUserRepository(sqlDB)
	zoneRepo := repository.NewZoneRepository(sqlDB)
	vehicleRepo := repository.NewVehicleRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)

	authService := service.NewAuthService(userRepo)
	vehiclesService := service.NewVehiclesService(vehicleRepo, logger)
	sessionsService := service.NewSessionsService(sessionRepo, vehicleRepo, zoneRepo, userRepo, activeCache, clock.NewSystem(), logger)
	walletService := service.NewWalletService(userRepo, logger)

	authed := middleware.Auth(authService)
	routes := httpserver.Routes{
		Root:           handlers.NewRootHandler(),
		Health:         handlers.NewHealthHandler(),
		Zones:          authed(handlers.NewZonesHandler(zoneRepo)),
		VehicleCreate:  authed(handlers.NewVehicleCreateHandler(vehiclesService)),
		VehicleList:    authed(handlers.NewVehicleListHandler(vehiclesService)),
		SessionStart:   authed(handlers.NewSessionStartHandler(sessionsService)),
		SessionStop:    authed(handlers.NewSessionStopHandler(sessionsService)),
		SessionList:    authed(handlers.NewSessionListHandler(sessionsService)),
		SessionsActive: authed(handlers.NewActiveSessionsHandler(sessionsService)),
		SessionGet:     authed(handlers.NewSessionGetHandler(sessionsService)),
		WalletDeposit:  authed(handlers.NewWalletDepositHandler(walletService)),
	}

	var handler http.Handler = httpserver.NewRouter(routes)
	handler = middleware.Logging(logger)(handler)
	server := httpserver.NewServer(cfg.HTTPAddress(), handler, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
