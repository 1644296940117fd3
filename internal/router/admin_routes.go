package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/middleware"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// RegisterAdmin registers administrator-only routes.
func RegisterAdmin(e *echo.Echo, h Handlers, gd Guards, jwtSecret string) {
	admin := middleware.RequireRole(model.RoleAdmin)

	desk := jwtGroup(e, "/v1", jwtSecret, admin)
	desk.GET("/members/status", h.Members.Status)
	desk.GET("/attendance/today", h.Attendance.Today)

	g := jwtGroup(e, "/v1/admin", jwtSecret, admin)
	g.GET("/members", h.Members.List)
	g.POST("/members", h.Auth.RegisterMember)
	g.GET("/reservations", h.Bookings.ListByDate)
	g.POST("/reservations/:id/cancel", h.Bookings.Cancel)
	g.DELETE("/reservations/:id", h.Bookings.Purge)
	g.GET("/reports/occupancy", h.Reports.Occupancy, gd.Cache)
	g.GET("/reports/weekdays", h.Reports.Weekdays, gd.Cache)
	g.GET("/attendance.csv", h.Reports.ExportCSV)
}
