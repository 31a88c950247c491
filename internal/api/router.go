package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/houstoncollective/streamadmin/internal/api/handler"
	"github.com/houstoncollective/streamadmin/internal/api/middleware"
	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

// Dependencies carries everything the router wires together.
type Dependencies struct {
	DB           *sql.DB
	Auth         ports.AuthService
	Users        ports.UserService
	Activity     ports.ActivityService
	Log          zerolog.Logger
	CookieSecure bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("streamadmin"))
	e.Use(middleware.Session(deps.Auth, deps.Log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.CookieSecure, deps.Log)
	userHandler := handler.NewUserHandler(deps.Users)
	activityHandler := handler.NewActivityHandler(deps.Activity)

	// --- Auth routes ---
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout)
	e.GET("/access-denied", handler.AccessDenied)
	e.GET("/me", authHandler.Me, middleware.RequireRole(domain.RoleViewer))

	// --- User management (admin only) ---
	users := e.Group("/users", middleware.RequireRole(domain.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Deactivate)
	users.POST("/:id/unlock", userHandler.Unlock)

	// --- Activity log (admin only) ---
	e.GET("/activity", activityHandler.Recent, middleware.RequireRole(domain.RoleAdmin))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – is the store reachable?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
