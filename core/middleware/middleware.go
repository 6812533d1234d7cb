package middleware

import (
	"net/http"

	"go-agenda-sync/core/controller"
	"go-agenda-sync/core/errors"

	"github.com/labstack/echo/v4"
)

const UserKeyHeader = "X-User-Key"

const userKeyContextKey = "user_key"

type Middleware struct{}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

// UserKeyMiddleware requires the opaque per-user key on every request and
// stashes it in the echo context for controllers.
func (m *Middleware) UserKeyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userKey := c.Request().Header.Get(UserKeyHeader)
			if userKey == "" {
				return controller.NewErrorResponse(http.StatusUnauthorized,
					errors.ErrUnauthorized, "missing "+UserKeyHeader+" header")
			}
			c.Set(userKeyContextKey, userKey)
			return next(c)
		}
	}
}

// UserKeyFromContext returns the user key set by UserKeyMiddleware.
func UserKeyFromContext(c echo.Context) string {
	if key, ok := c.Get(userKeyContextKey).(string); ok {
		return key
	}
	return ""
}
