package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// RequireRole aborts with 403 unless JWTAuth stored one of roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[RoleOf(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": apperr.Forbidden, "message": "forbidden"})
			}
			return next(c)
		}
	}
}
