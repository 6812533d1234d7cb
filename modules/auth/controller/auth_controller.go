package controller

import (
	"go-agenda-sync/core/controller"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/auth/dto"
	"go-agenda-sync/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	service service.CredentialServiceInterface
	controller.BaseController
}

func NewAuthController(service service.CredentialServiceInterface) *AuthController {
	return &AuthController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// BeginGoogleAuthorization returns the consent URL to open in a browser
// @Summary Start Google Calendar authorization
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.AuthURLResponse
// @Router /auth/google/url [get]
func (c *AuthController) BeginGoogleAuthorization(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	authURL, err := c.service.BeginAuthorization(ctx.Request().Context(), userKey)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, dto.AuthURLResponse{AuthURL: authURL}, "Authorization URL created")
}

// GoogleCallback handles the OAuth callback from Google
// @Summary OAuth consent callback
// @Tags Auth
// @Produce json
// @Param code query string false "Authorization code"
// @Param state query string true "Signed state parameter"
// @Param error query string false "Provider error"
// @Router /auth/google/callback [get]
func (c *AuthController) GoogleCallback(ctx echo.Context) error {
	code := ctx.QueryParam("code")
	state := ctx.QueryParam("state")
	providerErr := ctx.QueryParam("error")

	if state == "" {
		return c.BadRequest(errors.ErrInvalidRequestData, "state parameter is required for security validation", nil)
	}

	userKey, err := c.service.CompleteAuthorization(ctx.Request().Context(), code, state, providerErr)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, dto.ConnectionStatusResponse{
		Provider: service.ProviderGoogle,
		State:    string(c.service.Status(ctx.Request().Context(), userKey)),
	}, "Calendar connected successfully")
}

// RevokeGoogle disconnects the calendar integration
// @Summary Revoke Google Calendar access
// @Tags Auth
// @Produce json
// @Router /auth/google [delete]
func (c *AuthController) RevokeGoogle(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	c.service.Revoke(ctx.Request().Context(), userKey)

	return c.SuccessResponse(ctx, dto.ConnectionStatusResponse{
		Provider: service.ProviderGoogle,
		State:    string(service.StateUnauthenticated),
	}, "Calendar disconnected")
}

// GoogleStatus reports the connection state
// @Summary Google Calendar connection status
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.ConnectionStatusResponse
// @Router /auth/google/status [get]
func (c *AuthController) GoogleStatus(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	return c.SuccessResponse(ctx, dto.ConnectionStatusResponse{
		Provider: service.ProviderGoogle,
		State:    string(c.service.Status(ctx.Request().Context(), userKey)),
	}, "Connection status retrieved")
}
