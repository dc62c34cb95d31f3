package routes

import (
	"github.com/BradenHooton/examhub/internal/auth"
	"github.com/BradenHooton/examhub/internal/handlers"
	"github.com/BradenHooton/examhub/internal/middleware"
	"github.com/BradenHooton/examhub/internal/models"
	"github.com/BradenHooton/examhub/internal/observability"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	userHandler *handlers.UserHandler,
	updateHandler *handlers.UpdateRequestHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *auth.Middleware,
	submitLimiter *middleware.UserRateLimiter,
	metrics *observability.Metrics,
) {
	// Public routes - no authentication required
	router.Get("/health", healthHandler.Health)
	if metrics != nil {
		router.Method("GET", "/metrics", metrics.Handler())
	}

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(middleware.TagUser)

		// Self or staff, checked in the handlers
		r.Get("/users/{id}", userHandler.GetUser)
		r.With(submitLimiter.Handler).Post("/users/{id}/update-requests", updateHandler.Submit)
		r.Get("/users/{id}/update-requests", updateHandler.ListForUser)

		// Staff-only routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin))
			r.Get("/users", userHandler.ListUsers)
			r.Post("/users", userHandler.CreateUser)

			r.Route("/admin/update-requests", func(r chi.Router) {
				r.Get("/", updateHandler.ListPending)
				r.Get("/{id}", updateHandler.Get)
				r.Post("/{id}/review", updateHandler.Review)
			})
		})
	})
}
