package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/auth"
	"github.com/devconnect/devconnect-server/internal/cache"
	"github.com/devconnect/devconnect-server/internal/config"
	"github.com/devconnect/devconnect-server/internal/core"
	"github.com/devconnect/devconnect-server/internal/service/feed"
	"github.com/devconnect/devconnect-server/internal/service/profiles"
	"github.com/devconnect/devconnect-server/internal/service/requests"
	"github.com/devconnect/devconnect-server/internal/store"
	"github.com/devconnect/devconnect-server/internal/store/sqlite"
	transporthttp "github.com/devconnect/devconnect-server/internal/transport/http"
)

// App wires together the store, services, hub and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	cache           cache.Cache
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	if cfg.JWTSecret == "" {
		st.Close()
		return nil, fmt.Errorf("jwt_secret must be set")
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	// Profile reads go through redis when an address is configured;
	// otherwise the service hits the store directly.
	var profileCache cache.Cache
	if cfg.RedisAddr != "" {
		profileCache, err = cache.NewRedis(cfg.RedisAddr)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("profile cache enabled")
	}

	profileService := profiles.New(st, profileCache, logger)
	hub := core.NewHub(st, logger)

	server := transporthttp.NewServer(transporthttp.Services{
		Auth:     authService,
		Profiles: profileService,
		Requests: requests.New(st),
		Feed:     feed.New(st),
		Store:    st,
		Hub:      hub,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		cache:           profileCache,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the database and cache connections.
func (a *App) cleanup() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close cache")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
