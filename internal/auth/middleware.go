package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/fieldops/backoffice-api/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator turns a bearer token into an identity
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.Identity, error)
}

// ActorResolver maps a validated identity to a stored user
type ActorResolver interface {
	ResolveActor(ctx context.Context, identity domain.Identity) (domain.Actor, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	validator TokenValidator
	resolver  ActorResolver
	apiKey    string
	logger    *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, resolver ActorResolver, logger *zap.Logger) *Middleware {
	return NewMiddlewareWithValidator(NewJWTValidator(&cfg.Identity), resolver, cfg.ApiKey.Value, logger)
}

// NewMiddlewareWithValidator builds the middleware around any token validator
func NewMiddlewareWithValidator(validator TokenValidator, resolver ActorResolver, apiKey string, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		resolver:  resolver,
		apiKey:    apiKey,
		logger:    logger,
	}
}

// Authenticate resolves the request's actor or answers 401
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				unauthorized(w, "Invalid API key")
				return
			}
			actor := SystemActor()
			m.logger.Debug("request authenticated",
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Missing authorization header")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(w, "Invalid authorization header format")
			return
		}

		identity, err := m.validator.ValidateToken(r.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			detail := "Invalid token"
			switch {
			case errors.Is(err, ErrExpiredToken):
				detail = "Token has expired"
			case errors.Is(err, ErrInvalidScope):
				detail = "Token is missing a required scope"
			}
			unauthorized(w, detail)
			return
		}

		actor, err := m.resolver.ResolveActor(r.Context(), identity)
		if err != nil {
			m.logger.Error("failed to resolve actor",
				zap.String("subject", identity.Subject),
				zap.Error(err),
			)
			writeError(w, http.StatusServiceUnavailable, domain.ErrorTypeUnavailable, "Could not resolve the current user")
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "jwt"),
			zap.String("user_id", actor.ID.String()),
			zap.String("role", string(actor.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, detail)
}

func writeError(w http.ResponseWriter, status int, errorType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   errorType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
