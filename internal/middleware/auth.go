package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"thing-journal-server/internal/auth"
	"thing-journal-server/internal/models"
)

// Auth returns an Echo middleware that requires a valid bearer token.
// On success the user's ID is stored in the request context under
// models.UserContextKey.
func Auth(verifier auth.TokenVerifier, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verify(c, verifier, logger)
			if err != nil {
				return err
			}
			setUser(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches the user's ID to the context when a valid token is
// present and lets anonymous requests through untouched. An invalid or
// expired token is still rejected.
func OptionalAuth(verifier auth.TokenVerifier, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			claims, err := verify(c, verifier, logger)
			if err != nil {
				return err
			}
			setUser(c, claims)
			return next(c)
		}
	}
}

func verify(c echo.Context, verifier auth.TokenVerifier, logger *zap.Logger) (*models.Claims, error) {
	log := logger.With(zap.String("path", c.Request().URL.Path))

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		log.Warn("Authorization header missing")
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Missing token")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		log.Warn("Malformed Authorization header")
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Malformed token header")
	}

	claims, err := verifier.VerifyToken(c.Request().Context(), parts[1])
	if err != nil {
		msg := "Unauthorized: Invalid token"
		status := http.StatusUnauthorized
		switch {
		case errors.Is(err, models.ErrTokenExpired):
			msg = "Unauthorized: Token expired"
		case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
		default:
			log.Error("Unexpected token verification error", zap.Error(err))
			status = http.StatusInternalServerError
			msg = "Internal server error during token verification"
		}
		log.Warn("Token verification failed", zap.Error(err))
		return nil, echo.NewHTTPError(status, msg)
	}
	return claims, nil
}

func setUser(c echo.Context, claims *models.Claims) {
	ctx := context.WithValue(c.Request().Context(), models.UserContextKey, claims.UserID)
	c.SetRequest(c.Request().WithContext(ctx))
}
