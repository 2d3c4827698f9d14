package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"keyring/internal/api/handlers"
	"keyring/internal/api/middleware"
	"keyring/internal/engine/tokens"
	"keyring/internal/platform/audit"
	"keyring/internal/platform/auth"
	"keyring/internal/platform/bootstrap"
	"keyring/internal/platform/config"
	"keyring/internal/platform/repositories"
)

// App bundles the HTTP handler with the resources that need shutting down.
type App struct {
	Handler     http.Handler
	Tokens      *tokens.Service
	Audit       *audit.Logger
	RateLimiter *middleware.RateLimiter
}

// NewApp wires repositories, services and handlers over db and seeds defaults.
func NewApp(ctx context.Context, cfg *config.Config, db *sql.DB) (*App, error) {
	userRepo := repositories.NewUserRepository(db)
	optionRepo := repositories.NewOptionRepository(db)
	if err := bootstrap.Seed(ctx, cfg, userRepo, optionRepo); err != nil {
		return nil, err
	}

	tokenSvc := tokens.NewService(tokens.NewRepository(db), cfg, tokens.Limits{
		MaxNameLen:  cfg.Tokens.MaxNameLen,
		MaxDuration: cfg.Tokens.MaxDuration,
	})
	jwtSvc := auth.NewTokenService(cfg.JWT)
	auditLogger := audit.NewLogger(db)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)

	deps := &Dependencies{
		TokenHandler:      handlers.NewTokenHandler(tokenSvc, auditLogger, cfg.Tokens.ItemsPerPage),
		UserHandler:       handlers.NewUserHandler(userRepo, optionRepo, cfg, jwtSvc),
		GroupHandler:      handlers.NewGroupHandler(cfg.Groups),
		AuditHandler:      handlers.NewAuditHandler(auditLogger),
		HealthHandler:     handlers.NewHealthHandler(db),
		MetricsHandler:    handlers.NewMetricsHandler(),
		AuthMiddleware:    middleware.NewAuthMiddleware(jwtSvc),
		KeyAuthMiddleware: middleware.NewKeyAuthMiddleware(tokenSvc),
		RateLimiter:       limiter,
	}

	return &App{
		Handler:     NewRouter(deps),
		Tokens:      tokenSvc,
		Audit:       auditLogger,
		RateLimiter: limiter,
	}, nil
}

// NewHTTPServer applies the configured timeouts.
func NewHTTPServer(addr string, cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Close stops background work and flushes pending audit writes.
func (a *App) Close() {
	a.RateLimiter.Stop()
	done := make(chan struct{})
	go func() {
		a.Audit.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
