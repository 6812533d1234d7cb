package router

import (
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	group := e.Group("/api/v1/auth")

	// The callback is reached by the provider redirect: no user-key header,
	// the signed state parameter carries the user.
	group.GET("/google/callback", r.controller.GoogleCallback)

	keyed := group.Group("", mw.UserKeyMiddleware())
	keyed.GET("/google/url", r.controller.BeginGoogleAuthorization)
	keyed.GET("/google/status", r.controller.GoogleStatus)
	keyed.DELETE("/google", r.controller.RevokeGoogle)
}
