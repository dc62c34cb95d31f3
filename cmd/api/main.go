package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/config"
	"github.com/BradenHooton/examhub/internal/database"
	"github.com/BradenHooton/examhub/internal/handlers"
	middlewareCustom "github.com/BradenHooton/examhub/internal/middleware"
	"github.com/BradenHooton/examhub/internal/observability"
	"github.com/BradenHooton/examhub/internal/routes"
	"github.com/BradenHooton/examhub/internal/services"
	pkghttp "github.com/BradenHooton/examhub/pkg/http"
	pkglogger "github.com/BradenHooton/examhub/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ctx := context.Background()

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional; without it rate limits are per process
	rdb, err := database.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()

	telemetry, err := observability.NewTelemetry(ctx, cfg.Otel, cfg.Server.Env)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.Any("error", err))
		os.Exit(1)
	}
	metrics := observability.NewMetrics()

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxies", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories and services
	tx := services.NewPgxTransactor(db)
	repos := tx.Repositories()

	userService := services.NewUserService(repos, tx, logger)
	profileUpdateService := services.NewProfileUpdateService(repos, tx, cfg.ProfileUpdate, logger).
		WithMetrics(metrics).
		WithTracer(telemetry.Tracer)

	// Bootstrap first admin user if configured
	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	ensureAdminUser(bootstrapCtx, userService, logger)
	cancel()

	// Initialize auth
	tokenManager := auth.NewTokenManager(cfg.Auth)
	auditLogger := pkglogger.NewAuditLogger(logger)
	authMiddleware := auth.NewMiddleware(tokenManager, repos.Users, auditLogger, ipConfig)

	var redisClient *redis.Client
	healthHandler := handlers.NewHealthHandler(db, logger)
	if rdb != nil {
		redisClient = rdb.Client
		healthHandler = healthHandler.WithOptional("redis", rdb)
	}
	submitLimiter := middlewareCustom.NewSubmitRateLimiter(redisClient, cfg.RateLimit, logger)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, logger)
	updateRequestHandler := handlers.NewUpdateRequestHandler(profileUpdateService, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(observability.TraceRequests(telemetry.Tracer))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middlewareCustom.SecurityHeaders(cfg.Server.Env))
	router.Use(middlewareCustom.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.RateLimitByIP(cfg.RateLimit.RequestsPerMinute, ipConfig))

	// Register routes
	routes.RegisterRoutes(router, userHandler, updateRequestHandler, healthHandler, authMiddleware, submitLimiter, metrics)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first super admin if ADMIN_EMAIL is set
func ensureAdminUser(ctx context.Context, userService *services.UserService, logger *slog.Logger) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		logger.Info("no ADMIN_EMAIL set, skipping admin user creation")
		return
	}

	if _, err := userService.EnsureSuperAdmin(ctx, adminEmail, os.Getenv("ADMIN_NAME")); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
