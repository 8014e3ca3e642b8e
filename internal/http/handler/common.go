package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/auth"
	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/repository"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("jobtype", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseJobType(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("jobstatus", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseJobStatus(fl.Field().String())
		return ok
	})
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondValidationError sends a 400 with one message per failing field
func respondValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fieldPath(fe)] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: fields,
	})
}

// fieldPath drops the struct name: "CreateJobRequest.line_items[0].kind"
// becomes "line_items[0].kind".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusServiceUnavailable:
		return domain.ErrorTypeUnavailable
	default:
		return domain.ErrorTypeInternal
	}
}

// respondServiceError maps a service error kind to its HTTP status. Errors
// without a kind are logged and hidden behind a generic 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, op string) {
	status, errType := http.StatusInternalServerError, domain.ErrorTypeInternal
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status, errType = http.StatusUnauthorized, domain.ErrorTypeUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status, errType = http.StatusForbidden, domain.ErrorTypeForbidden
	case errors.Is(err, service.ErrValidation):
		status, errType = http.StatusBadRequest, domain.ErrorTypeValidation
	case errors.Is(err, service.ErrNotFound):
		status, errType = http.StatusNotFound, domain.ErrorTypeNotFound
	case errors.Is(err, service.ErrInvalidStateTransition):
		status, errType = http.StatusConflict, domain.ErrorTypeInvalidState
	case errors.Is(err, service.ErrConflict):
		status, errType = http.StatusConflict, domain.ErrorTypeConflict
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status, errType = http.StatusServiceUnavailable, domain.ErrorTypeUnavailable
	}

	detail := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("operation", op), zap.Error(err))
		detail = "An unexpected error occurred"
	} else if status == http.StatusServiceUnavailable {
		logger.Warn("upstream unavailable", zap.String("operation", op), zap.Error(err))
	}

	respondJSON(w, status, domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// actorFrom returns the authenticated actor or writes a 401
func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return decodeBody(w, r, dst) && validateBody(w, dst)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validateBody(w http.ResponseWriter, dst interface{}) bool {
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// pathUUID parses a chi URL parameter as a UUID
func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID format", label))
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads page and limit, clamped to the allowed range
func pageParams(r *http.Request) (int, int) {
	page := parseIntQuery(r, "page", 1)
	limit := parseIntQuery(r, "limit", repository.DefaultPageSize)
	return repository.NormalizePage(page, limit)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return val
}

// queryUUID parses an optional UUID query parameter
func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid %s", key)
	}
	return &id, nil
}

// queryTime parses an optional RFC3339 or YYYY-MM-DD query parameter
func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("Invalid %s: use RFC3339 or YYYY-MM-DD", key)
}
