package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const UserIDKey = "user_id"

// RoleChecker is satisfied by the role service.
type RoleChecker interface {
	HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error)
}

// UserID returns the authenticated user set by JWTAuth.
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

// JWTAuth accepts an HS256 bearer token and stores its subject as the user
// id. The token is also read from the access_token query parameter because
// EventSource cannot set headers.
func JWTAuth(secret, issuer string) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &jwt.RegisteredClaims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					msg = "token expired"
				}
				return echo.NewHTTPError(http.StatusUnauthorized, msg)
			}
			if claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
			}

			c.Set(UserIDKey, claims.Subject)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("access_token")
}

// RequireRole lets the request through when the user holds any of roles.
func RequireRole(checker RoleChecker, log *zap.Logger, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := UserID(c)
			ok, err := checker.HasAnyRole(c.Request().Context(), userID, roles...)
			if err != nil {
				log.Error("role lookup failed", zap.String("user_id", userID), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "could not check permissions")
			}
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
