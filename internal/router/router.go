// Package router registers the HTTP routes of the pool service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/handler"
	"github.com/iliyamo/pool-reservation/internal/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Bookings   *handler.BookingHandler
	Attendance *handler.AttendanceHandler
	Reports    *handler.ReportHandler
	Members    *handler.MemberHandler
	Health     echo.HandlerFunc
}

// Guards are the Redis-backed middlewares; either may be a pass-through.
type Guards struct {
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterRoutes registers the unauthenticated routes.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health)

	g := e.Group("/v1/auth")
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", h.Auth.Logout)
}

// Register mounts every route.
func Register(e *echo.Echo, h Handlers, gd Guards, jwtSecret string) {
	if gd.Cache == nil {
		gd.Cache = passThrough
	}
	if gd.RateLimit == nil {
		gd.RateLimit = passThrough
	}
	RegisterRoutes(e, h)
	RegisterMember(e, h, gd, jwtSecret)
	RegisterAdmin(e, h, gd, jwtSecret)
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// jwtGroup is a /v1 sub-group behind JWTAuth.
func jwtGroup(e *echo.Echo, prefix, jwtSecret string, m ...echo.MiddlewareFunc) *echo.Group {
	return e.Group(prefix, append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, m...)...)
}
