package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/houstoncollective/streamadmin/internal/api"
	"github.com/houstoncollective/streamadmin/internal/api/metrics"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
	"github.com/houstoncollective/streamadmin/internal/core/service"
	"github.com/houstoncollective/streamadmin/internal/infrastructure/audit"
	"github.com/houstoncollective/streamadmin/internal/infrastructure/db/sqlite"
	"github.com/houstoncollective/streamadmin/internal/pkg/config"
	"github.com/houstoncollective/streamadmin/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()

	if err := sqlite.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	if err := service.EnsureDefaultAdmin(ctx, userRepo, log); err != nil {
		log.Fatal().Err(err).Msg("seed default admin")
	}

	recorder := audit.NewRecorder(activityRepo, log, cfg.AuditBuffer)
	recorder.Start(ctx)

	authService := service.NewAuthService(userRepo, sessionRepo, recorder, log)
	userService := service.NewUserService(userRepo, recorder, log)
	activityService := service.NewActivityService(activityRepo)

	go sessionJanitor(ctx, sessionRepo, log, cfg.JanitorInterval, cfg.SessionRetention)

	e := api.NewRouter(api.Dependencies{
		DB:           db,
		Auth:         authService,
		Users:        userService,
		Activity:     activityService,
		Log:          log,
		CookieSecure: cfg.CookieSecure,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("admin auth service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// sessionJanitor periodically hard-deletes session rows whose expiry passed
// more than retention ago. Live invalidation does not depend on it; expired
// sessions already fail validation per request.
func sessionJanitor(ctx context.Context, sessions ports.SessionRepository, log zerolog.Logger, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			n, err := sessions.DeleteExpiredBefore(ctx, cutoff)
			if err != nil {
				log.Error().Err(err).Msg("session purge failed")
				continue
			}
			if n > 0 {
				metrics.SessionsPurgedTotal.Add(float64(n))
				log.Info().Int64("deleted", n).Msg("purged expired sessions")
			}
		}
	}
}
