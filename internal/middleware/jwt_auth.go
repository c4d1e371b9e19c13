package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserContextKey is where verified claims are stored on the echo context
const UserContextKey = "user"

var errMissingToken = errors.New("missing token")

func parseToken(header, secret string) (*models.JwtCustomClaims, error) {
	if header == "" {
		return nil, errMissingToken
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
		}
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	if !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return claims, nil
}

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseToken(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				if errors.Is(err, errMissingToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
				}
				return err
			}
			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTMiddleware sets the user when a valid token is present and lets anonymous requests through
func OptionalJWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := parseToken(c.Request().Header.Get("Authorization"), secret); err == nil {
				c.Set(UserContextKey, claims)
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects users without the admin role. It must run after JWTAuthMiddleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(UserContextKey).(*models.JwtCustomClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if claims.Role != models.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}
