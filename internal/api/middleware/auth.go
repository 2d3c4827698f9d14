package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apiContext "keyring/internal/api/context"
	"keyring/internal/engine/tokens"
	"keyring/internal/pkg/errors"
	"keyring/internal/platform/auth"
)

type AuthMiddleware struct {
	tokenSvc *auth.TokenService
}

func NewAuthMiddleware(tokenSvc *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

func bearer(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header")
			return
		}

		raw, ok := bearer(r)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.tokenSvc.ValidateToken(raw)
		if err != nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}

// KeyAuthMiddleware authenticates requests carrying an issued sk- key.
type KeyAuthMiddleware struct {
	tokens *tokens.Service
}

func NewKeyAuthMiddleware(svc *tokens.Service) *KeyAuthMiddleware {
	return &KeyAuthMiddleware{tokens: svc}
}

func (m *KeyAuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearer(r)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing or malformed API key")
			return
		}

		token, err := m.tokens.Authenticate(r.Context(), raw)
		if err != nil {
			log.Debug().Err(err).Msg("api key rejected")
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid, disabled or expired API key")
			return
		}

		if token.Subnet != nil && !clientInSubnets(r, *token.Subnet) {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Client address is not allowed for this API key")
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Token, token)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin rejects sessions below the admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok || claims.Role < adminRole {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions")
			return
		}
		next(w, r)
	}
}
