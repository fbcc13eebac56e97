package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sellerhub/identity-service/internal/core/domain"
)

// RequireRole enforces role-based access using the role hierarchy: a holder
// of any role that subsumes required passes.
func RequireRole(required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if !domain.RoleSubsumes(domain.Role(role), required) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
