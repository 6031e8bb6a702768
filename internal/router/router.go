// Package router wires handlers to routes and applies the session and role
// gates declaratively, so no route can forget its check.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/altasolucion/visit-tracker/internal/config"
	"github.com/altasolucion/visit-tracker/internal/handler"
	"github.com/altasolucion/visit-tracker/internal/middleware"
	"github.com/altasolucion/visit-tracker/internal/model"
)

// Deps bundles everything the routes need.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	Redis     *redis.Client // nil disables login rate limiting
	Auth      *handler.AuthHandler
	Visits    *handler.VisitHandler
	Admin     *handler.UserAdminHandler
}

// Register mounts all routes on the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Public surface.
	e.GET("/", d.Auth.Root)
	e.GET("/login", d.Auth.LoginForm)
	e.POST("/login", d.Auth.Login, middleware.LoginRateLimit(d.RateLimit, d.Redis))
	e.GET("/logout", d.Auth.Logout)

	// Any authenticated account.
	auth := e.Group("", middleware.SessionAuth(d.Cfg.SessionSecret))
	auth.GET("/dashboard", handler.Dashboard)
	auth.GET("/visitas", d.Visits.List)
	auth.POST("/visitas/nueva", d.Visits.Create)
	auth.GET("/cambiar-password", d.Auth.ChangePasswordForm)
	auth.POST("/cambiar-password", d.Auth.ChangePassword)

	// Admin only. Role mismatch is a hard 403, not a redirect.
	admin := auth.Group("", middleware.RequireRole(model.RolAdmin))
	admin.GET("/usuarios", d.Admin.List)
	admin.POST("/usuarios/crear", d.Admin.Create)
	admin.POST("/usuarios/guardar", d.Admin.Save)
}
