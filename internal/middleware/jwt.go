package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the member id and
// role claims in the context for MemberID and RoleOf.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			sub := claims.Subject
			role, ok := model.ParseRole(claims.Role)
			if sub == "" || !ok {
				return unauthorized(c, "invalid claims")
			}
			c.Set(memberIDKey, sub)
			c.Set(roleKey, role)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": apperr.Unauthorized, "message": msg})
}
