package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/fieldops/backoffice-api/internal/auth"
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxAuditBody caps how much of a JSON body is copied into the audit payload
const maxAuditBody = 64 << 10

// AuditLogger is the part of the audit service the middleware needs
type AuditLogger interface {
	Log(ctx context.Context, entry service.LogEntry) error
}

// AuditConfig holds configuration for audit middleware
type AuditConfig struct {
	// SkipPaths contains path prefixes that should not be audited
	SkipPaths []string
	// SkipMethods contains HTTP methods that should not be audited
	SkipMethods []string
	// AuditReads enables auditing of GET requests (defaults to false)
	AuditReads bool
}

// DefaultAuditConfig returns default audit configuration
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/swagger",
		},
		SkipMethods: []string{
			http.MethodOptions,
			http.MethodHead,
		},
		AuditReads: false,
	}
}

// AuditMiddleware records successful state-changing requests in the audit log
type AuditMiddleware struct {
	auditLogger AuditLogger
	config      *AuditConfig
	logger      *zap.Logger
	// async is off in tests so entries can be asserted right after the request
	async bool
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditLogger AuditLogger, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditLogger: auditLogger,
		config:      config,
		logger:      logger,
		async:       true,
	}
}

// Audit must run after authentication so the actor is known
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		var requestBody []byte
		if r.Body != nil && isJSON(r) {
			requestBody, _ = io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), r.Body))
			if len(requestBody) > maxAuditBody {
				requestBody = nil
			}
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		entry, ok := m.buildEntry(r, rw.statusCode, requestBody)
		if !ok {
			return
		}
		ctx := context.WithoutCancel(r.Context())
		if m.async {
			go m.write(ctx, entry)
		} else {
			m.write(ctx, entry)
		}
	})
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "" || strings.HasPrefix(strings.ToLower(ct), "application/json")
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	for _, method := range m.config.SkipMethods {
		if r.Method == method {
			return false
		}
	}
	if r.Method == http.MethodGet && !m.config.AuditReads {
		return false
	}
	for _, skipPath := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skipPath) {
			return false
		}
	}
	return true
}

func (m *AuditMiddleware) buildEntry(r *http.Request, statusCode int, requestBody []byte) (service.LogEntry, bool) {
	if m.auditLogger == nil {
		return service.LogEntry{}, false
	}
	// Only successful modifications
	if statusCode < 200 || statusCode >= 300 {
		return service.LogEntry{}, false
	}
	action := methodToAction(r.Method)
	if action == "" {
		return service.LogEntry{}, false
	}

	entityType, entityID := extractEntityInfo(r)

	var payload map[string]interface{}
	if len(requestBody) > 0 {
		_ = json.Unmarshal(requestBody, &payload)
	}

	entry := service.LogEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Method:     r.Method,
		Path:       r.URL.Path,
		StatusCode: statusCode,
		RequestID:  r.Header.Get(RequestIDHeader),
		IPAddress:  clientIP(r),
		Payload:    payload,
	}
	if actor, ok := auth.ActorFromContext(r.Context()); ok {
		entry.Actor = &actor
	}
	return entry, true
}

func (m *AuditMiddleware) write(ctx context.Context, entry service.LogEntry) {
	if err := m.auditLogger.Log(ctx, entry); err != nil {
		m.logger.Warn("failed to create audit log entry",
			zap.String("path", entry.Path),
			zap.String("method", entry.Method),
			zap.Error(err))
	}
}

func methodToAction(method string) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.AuditActionUpdate
	case http.MethodDelete:
		return domain.AuditActionDelete
	default:
		return ""
	}
}

// extractEntityInfo takes the entity type from the chi route pattern and the
// id from its {id} parameter.
func extractEntityInfo(r *http.Request) (string, *uuid.UUID) {
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx == nil {
		return parseEntityFromPath(r.URL.Path), nil
	}

	var entityID *uuid.UUID
	if idStr := routeCtx.URLParam("id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			entityID = &id
		}
	}

	pattern := routeCtx.RoutePattern()
	if pattern == "" {
		pattern = r.URL.Path
	}
	return parseEntityFromPath(pattern), entityID
}

var entityMap = map[string]string{
	"customers":     "Customer",
	"contacts":      "Contact",
	"projects":      "Project",
	"jobs":          "Job",
	"job-reports":   "JobReport",
	"users":         "User",
	"departments":   "Department",
	"service-items": "ServiceItem",
	"products":      "InventoryProduct",
	"media":         "Media",
}

// parseEntityFromPath returns the first known collection in the path
func parseEntityFromPath(path string) string {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if entityType, ok := entityMap[part]; ok {
			return entityType
		}
	}
	return "Unknown"
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// responseCapture wraps ResponseWriter to capture the status code
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
