package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/nutritionbot/dashboard-backend/internal/admin"
	"github.com/nutritionbot/dashboard-backend/internal/auth"
	"github.com/nutritionbot/dashboard-backend/internal/config"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/metrics"
	"github.com/nutritionbot/dashboard-backend/internal/middleware"
	"github.com/nutritionbot/dashboard-backend/internal/regcode"
	"github.com/nutritionbot/dashboard-backend/internal/trainer"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func healthHandler(d *gorm.DB, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context(), d); err != nil {
			logger.WarnContext(r.Context(), "health check failed", "error", err)
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	}
}

func migrate(d *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"auth", auth.Migrate},
		{"regcode", regcode.Migrate},
		{"trainer", trainer.Migrate},
	}
	for _, s := range steps {
		if err := s.fn(d); err != nil {
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
	}
	return nil
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormLevel := gormlogger.Warn
	if cfg.LogLevel <= slog.LevelDebug {
		gormLevel = gormlogger.Info
	}
	d, err := db.Connect(db.Options{
		DSN:          cfg.DatabaseURL,
		SlowQuery:    cfg.DB.SlowQuery,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		LogLevel:     gormLevel,
	})
	if err != nil {
		return err
	}
	if err := migrate(d); err != nil {
		return err
	}

	m := metrics.New()

	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return err
	}
	identities := auth.NewGormStore(d)
	accounts := auth.NewService(identities, hasher, tokens, logger, m)
	resolver := auth.NewResolver(tokens, identities, logger)

	lifecycle := regcode.NewLifecycle(regcode.NewGormStore(d), accounts,
		regcode.WithMetrics(m), regcode.WithLogger(logger))

	limiter := middleware.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginRateBurst)
	go limiter.Run(ctx)

	authn := middleware.Authenticate(resolver, logger)
	adminOnly := []func(http.Handler) http.Handler{authn, middleware.RequireAdmin(logger)}
	staff := []func(http.Handler) http.Handler{authn, middleware.RequireTrainerOrAdmin(logger)}

	trainers := trainer.NewHandlers(d, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.HTTP.AllowedOrigins))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Timeout(cfg.HTTP.RequestTimeout))

	r.Get("/", RootHandler)
	r.Get("/health", healthHandler(d, logger))
	r.Handle("/metrics", m.Handler())

	r.Mount("/auth", auth.SetupRoutes(auth.NewHandlers(accounts, lifecycle, logger), authn, limiter.Middleware))
	r.Mount("/question-categories", trainer.SetupPublicRoutes(trainers))
	r.Mount("/trainer", trainer.SetupRoutes(trainers, staff...))
	r.Route("/admin", func(r chi.Router) {
		r.Mount("/registration-codes", regcode.SetupRoutes(regcode.NewHandlers(lifecycle, logger), adminOnly...))
		r.Mount("/question-categories", trainer.SetupCategoryRoutes(trainers, adminOnly...))
		r.Mount("/", admin.SetupRoutes(admin.NewHandlers(d, accounts, lifecycle, logger), adminOnly...))
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.RequestTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
