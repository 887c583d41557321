package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// ContextKeyPrincipal is the echo.Context key holding the authenticated principal.
const ContextKeyPrincipal = "principal"

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate is the core middleware function that validates the JWT access token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is missing"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format, must be Bearer token"})
		}

		claims, err := m.tokenSvc.ValidateToken(tokenString)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		// Resolve the acting identity once; handlers read it from the context.
		c.Set(ContextKeyPrincipal, entity.Principal{
			ID:   claims.CustomerID,
			Role: claims.Role,
		})

		return next(c)
	}
}

// RequireRole is a middleware factory that checks if the caller has a specific role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(ContextKeyPrincipal).(entity.Principal)
			if !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: identity information missing"})
			}

			if principal.Role != requiredRole {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: require '" + requiredRole.String() + "' role"})
			}

			return next(c)
		}
	}
}

// RequireStaff restricts the route to staff roles.
func (m *AuthMiddleware) RequireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, ok := c.Get(ContextKeyPrincipal).(entity.Principal)
		if !ok {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: identity information missing"})
		}

		if !principal.Role.IsStaff() {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: staff role required"})
		}

		return next(c)
	}
}
