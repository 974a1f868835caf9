package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/provision-service/internal/api/http/handlers"
	"github.com/spec-kit/provision-service/internal/auth"
	"github.com/spec-kit/provision-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Services       *handlers.ServicesHandler
	Provisions     *handlers.ProvisionsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Post("/password/reset/request", cfg.Accounts.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Accounts.ConfirmPasswordReset)

	profile := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	profile.Get("/profile", cfg.Accounts.GetProfile)
	profile.Put("/profile", cfg.Accounts.UpdateProfile)
	profile.Post("/password/change", cfg.Accounts.ChangePassword)

	// Catalog reads are public; mutations are admin only.
	services := app.Group("/services")
	services.Get("/", cfg.Services.ListServices)
	services.Get("/:id", cfg.Services.GetService)

	adminServices := services.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	adminServices.Post("/", cfg.Services.CreateService)
	adminServices.Put("/:id", cfg.Services.UpdateService)
	adminServices.Delete("/:id", cfg.Services.DeleteService)

	provisions := app.Group("/provisions", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	provisions.Post("/", auth.RequireRole(domain.RoleConsumer), cfg.Provisions.CreateProvision)
	provisions.Get("/", cfg.Provisions.ListProvisions)
	provisions.Get("/:id", cfg.Provisions.GetProvision)
	provisions.Put("/:id/status", cfg.Provisions.UpdateStatus)
	provisions.Get("/:id/history", cfg.Provisions.GetHistory)
}
