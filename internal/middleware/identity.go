package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/model"
)

const (
	memberIDKey = "member_id"
	roleKey     = "role"
)

// MemberID returns the authenticated member id, or "" for anonymous
// requests.
func MemberID(c echo.Context) string {
	id, _ := c.Get(memberIDKey).(string)
	return id
}

// RoleOf returns the authenticated role, or "" for anonymous requests.
func RoleOf(c echo.Context) model.Role {
	r, _ := c.Get(roleKey).(model.Role)
	return r
}

func userID(c echo.Context) string {
	if id := MemberID(c); id != "" {
		return id
	}
	return "guest"
}
