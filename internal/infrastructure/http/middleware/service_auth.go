package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ServiceAuth verifies signed service tokens on the internal control
// surfaces. The CRM backend mints short-lived HS256 tokens with the shared
// secret; this middleware only verifies, it never issues.
type ServiceAuth struct {
	secret []byte
	logger *zap.Logger
}

// NewServiceAuth creates the service-token middleware. An empty secret
// disables verification, for local development only.
func NewServiceAuth(secret string, logger *zap.Logger) *ServiceAuth {
	return &ServiceAuth{secret: []byte(secret), logger: logger}
}

// Verify is the echo middleware enforcing a valid service token
func (m *ServiceAuth) Verify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(m.secret) == 0 {
			return next(c)
		}

		raw := extractBearer(c.Request())
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing service token")
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			m.logger.Warn("🚫 Rejected service token", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid service token")
		}

		return next(c)
	}
}

// extractBearer pulls the token out of the Authorization header
func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
