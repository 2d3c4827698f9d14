package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "keyring/internal/api/context"
	"keyring/internal/api/handlers"
	"keyring/internal/api/middleware"
	"keyring/internal/pkg/errors"
)

type Dependencies struct {
	TokenHandler      *handlers.TokenHandler
	UserHandler       *handlers.UserHandler
	GroupHandler      *handlers.GroupHandler
	AuditHandler      *handlers.AuditHandler
	HealthHandler     *handlers.HealthHandler
	MetricsHandler    *handlers.MetricsHandler
	AuthMiddleware    *middleware.AuthMiddleware
	KeyAuthMiddleware *middleware.KeyAuthMiddleware
	RateLimiter       *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found")
	})

	authMid := deps.AuthMiddleware.Handle
	keyMid := deps.KeyAuthMiddleware.Handle
	count := deps.MetricsHandler.Count
	read := deps.RateLimiter.Limit(middleware.LimitAPIRead)
	write := deps.RateLimiter.Limit(middleware.LimitAPIWrite)
	keyLimit := deps.RateLimiter.Limit(middleware.LimitKey)

	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Session
	router.POST("/api/user/login", chain(deps.UserHandler.Login, count, write))
	router.GET("/api/user/self", chain(deps.UserHandler.Self, count, authMid, read))
	router.GET("/api/user/option", chain(deps.UserHandler.Options, count, authMid, read))
	router.GET("/api/user/models", chain(deps.UserHandler.Models, count, authMid, read))

	// Admin
	router.GET("/api/group/", chain(deps.GroupHandler.List, count, authMid, middleware.RequireAdmin, read))
	router.PUT("/api/option/", chain(deps.UserHandler.UpdateOption, count, authMid, middleware.RequireAdmin, write))
	router.GET("/api/log/", chain(deps.AuditHandler.List, count, authMid, middleware.RequireAdmin, read))

	// Token management
	router.GET("/api/token/", chain(deps.TokenHandler.List, count, authMid, read))
	router.GET("/api/token/:id", chain(deps.TokenHandler.Get, count, authMid, read))
	router.POST("/api/token/", chain(deps.TokenHandler.Create, count, authMid, write))
	router.PUT("/api/token/", chain(deps.TokenHandler.Update, count, authMid, write))
	router.PUT("/api/token/:id/billing_strategy", chain(deps.TokenHandler.UpdateBillingStrategy, count, authMid, write))
	router.DELETE("/api/token/:id", chain(deps.TokenHandler.Delete, count, authMid, write))

	// Key holders
	router.GET("/v1/token/status", chain(deps.TokenHandler.Status, count, keyMid, keyLimit))
	router.POST("/v1/token/first_use", chain(deps.TokenHandler.FirstUse, count, keyMid, keyLimit))

	return router
}

// chain applies middlewares outermost first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
