package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterMember registers routes open to any authenticated member. Check
// in and check out also accept administrators; ownership is enforced in the
// handler.
func RegisterMember(e *echo.Echo, h Handlers, gd Guards, jwtSecret string) {
	g := jwtGroup(e, "/v1", jwtSecret)
	g.GET("/me", h.Auth.Me)
	g.GET("/slots", h.Bookings.Slots)
	g.POST("/bookings/validate", h.Bookings.Validate, gd.RateLimit)
	g.POST("/bookings", h.Bookings.Create, gd.RateLimit)
	g.GET("/my-reservations", h.Bookings.Mine)
	g.POST("/reservations/:id/check-in", h.Attendance.CheckIn, gd.RateLimit)
	g.POST("/reservations/:id/check-out", h.Attendance.CheckOut, gd.RateLimit)
	g.GET("/stats/me", h.Reports.Me)
	g.GET("/leaderboard", h.Reports.Leaderboard, gd.Cache)
}
