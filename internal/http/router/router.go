package router

import (
	"encoding/json"
	"net/http"

	_ "github.com/fieldops/backoffice-api/docs" // registers the generated swagger spec
	"github.com/fieldops/backoffice-api/internal/auth"
	"github.com/fieldops/backoffice-api/internal/config"
	"github.com/fieldops/backoffice-api/internal/database"
	"github.com/fieldops/backoffice-api/internal/http/handler"
	"github.com/fieldops/backoffice-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers groups the HTTP handlers mounted under /api
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Customer  *handler.CustomerHandler
	Project   *handler.ProjectHandler
	Job       *handler.JobHandler
	JobReport *handler.JobReportHandler
	Catalog   *handler.CatalogHandler
	Inventory *handler.InventoryHandler
	Media     *handler.MediaHandler
	Audit     *handler.AuditHandler
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	h               Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		h:               handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimiddleware.Timeout(timeout))
		}
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.LimitByActor)
		r.Use(rt.auditMiddleware.Audit)

		r.Get("/auth/me", rt.h.Auth.Me)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", rt.h.User.List)
			r.Post("/", rt.h.User.Create)
			r.Get("/{id}", rt.h.User.GetByID)
			r.Patch("/{id}", rt.h.User.Update)
		})

		r.Route("/departments", func(r chi.Router) {
			r.Get("/", rt.h.User.ListDepartments)
			r.Post("/", rt.h.User.CreateDepartment)
			r.Put("/{id}", rt.h.User.UpdateDepartment)
			r.Delete("/{id}", rt.h.User.DeleteDepartment)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", rt.h.Customer.List)
			r.Post("/", rt.h.Customer.Create)
			r.Get("/{id}", rt.h.Customer.GetByID)
			r.Put("/{id}", rt.h.Customer.Update)
			r.Delete("/{id}", rt.h.Customer.Delete)
			r.Get("/{id}/contacts", rt.h.Customer.ListContacts)
			r.Post("/{id}/contacts", rt.h.Customer.CreateContact)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Put("/{id}", rt.h.Customer.UpdateContact)
			r.Delete("/{id}", rt.h.Customer.DeleteContact)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", rt.h.Project.List)
			r.Post("/", rt.h.Project.Create)
			r.Get("/{id}", rt.h.Project.GetByID)
			r.Put("/{id}", rt.h.Project.Update)
			r.Delete("/{id}", rt.h.Project.Delete)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", rt.h.Job.List)
			r.Post("/", rt.h.Job.Create)
			r.Get("/summary", rt.h.Job.Summary)
			r.Get("/{id}", rt.h.Job.Get)
			r.Patch("/{id}", rt.h.Job.Update)
			r.Delete("/{id}", rt.h.Job.Delete)
			r.Put("/{id}/technicians", rt.h.Job.AssignTechnicians)

			// Lifecycle
			r.Post("/{id}/approve", rt.h.Job.Approve)
			r.Post("/{id}/reject", rt.h.Job.Reject)
			r.Post("/{id}/finalize", rt.h.Job.Finalize)

			r.Post("/{id}/line-items", rt.h.Job.AddLineItem)
			r.Patch("/{id}/line-items/{itemId}", rt.h.Job.UpdateLineItem)
			r.Delete("/{id}/line-items/{itemId}", rt.h.Job.RemoveLineItem)

			r.Get("/{id}/reports", rt.h.Job.ListReports)
			r.Post("/{id}/reports", rt.h.Job.SubmitReport)
		})

		r.Route("/job-reports", func(r chi.Router) {
			r.Post("/", rt.h.JobReport.Submit)
			r.Put("/{id}", rt.h.JobReport.Update)
			r.Delete("/{id}", rt.h.JobReport.Delete)
		})

		r.Route("/service-items", func(r chi.Router) {
			r.Get("/", rt.h.Catalog.ListServiceItems)
			r.Post("/", rt.h.Catalog.CreateServiceItem)
			r.Put("/{id}", rt.h.Catalog.UpdateServiceItem)
			r.Delete("/{id}", rt.h.Catalog.DeleteServiceItem)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/products", rt.h.Inventory.ListProducts)
			r.Post("/products", rt.h.Inventory.CreateProduct)
			r.Get("/products/{id}/ledger", rt.h.Inventory.Ledger)
			r.Post("/products/{id}/adjustments", rt.h.Inventory.ApplyAdjustment)
			r.Post("/products/{id}/movements", rt.h.Inventory.PostMovement)
			r.Get("/export", rt.h.Inventory.Export)
		})

		r.Post("/media", rt.h.Media.Upload)
		r.Get("/media/*", rt.h.Media.Download)

		r.Get("/audit-logs", rt.h.Audit.List)
	})

	return r
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// databaseHealth reports pool statistics
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}
	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	status := http.StatusOK

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	writeHealth(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
