package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/access"
	"github.com/spec-kit/employee-portal/internal/api/http/handlers"
	"github.com/spec-kit/employee-portal/internal/auth"
	"github.com/spec-kit/employee-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Dashboard      *handlers.DashboardHandler
	Employees      *handlers.EmployeesHandler
	Profiles       *handlers.ProfilesHandler
	SalarySlips    *handlers.SalarySlipsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	LoginPerMinute int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Handler())

	limited := loginRateLimit(cfg.LoginPerMinute)
	authed := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/login", limited, cfg.Auth.Login)
	authGroup.Post("/signup", limited, cfg.Auth.SignUp)
	authGroup.Get("/roster", cfg.Auth.Roster)
	authGroup.Post("/password/reset/request", limited, cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", limited, cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/refresh", authed, cfg.Auth.Refresh)
	authGroup.Post("/logout", authed, cfg.Auth.Logout)
	authGroup.Post("/password/change", authed, cfg.Auth.ChangePassword)

	app.Get("/me", authed, cfg.Auth.Me)
	app.Get("/dashboard", authed, auth.RequireScreen(access.ScreenDashboard, access.ActionView), cfg.Dashboard.Get)

	employees := app.Group("/employees", authed, auth.RequireScreen(access.ScreenEmployees, access.ActionView))
	employees.Get("/", cfg.Employees.List)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Post("/", auth.RequireScreen(access.ScreenEmployees, access.ActionCreate), cfg.Employees.Create)
	employees.Put("/:id", auth.RequireScreen(access.ScreenEmployees, access.ActionUpdate), cfg.Employees.Update)
	employees.Delete("/:id", auth.RequireScreen(access.ScreenEmployees, access.ActionDelete), cfg.Employees.Delete)

	profiles := app.Group("/profiles", authed, auth.RequireScreen(access.ScreenProfiles, access.ActionView))
	profiles.Get("/", cfg.Profiles.List)
	profiles.Patch("/:id", auth.RequireScreen(access.ScreenProfiles, access.ActionUpdate), cfg.Profiles.Update)

	slips := app.Group("/salary-slips", authed, auth.RequireScreen(access.ScreenSalarySlips, access.ActionView))
	slips.Get("/", cfg.SalarySlips.List)
	slips.Post("/", auth.RequireScreen(access.ScreenSalarySlips, access.ActionUpload), cfg.SalarySlips.Upload)
	slips.Get("/:id", cfg.SalarySlips.Get)
	slips.Get("/:id/link", cfg.SalarySlips.Link)
	slips.Get("/:id/download", cfg.SalarySlips.Download)

	app.Get("/files/:token", cfg.SalarySlips.OpenSigned)
}
