package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// RequireRole enforces role-based access control. It must run after Auth;
// a request without an identity is rejected as unauthenticated.
func RequireRole(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	denied := "Access denied"
	if len(allowedRoles) == 1 && allowedRoles[0] == domain.RoleAdmin {
		denied = "Access denied. Admin only"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized")
			}
			if _, ok := allowed[identity.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, denied).SetInternal(domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// AdminOnly is RequireRole(domain.RoleAdmin).
func AdminOnly() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}
