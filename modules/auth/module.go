package auth

import (
	"go-agenda-sync/core/database"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/auth/controller"
	"go-agenda-sync/modules/auth/repository"
	"go-agenda-sync/modules/auth/router"
	"go-agenda-sync/modules/auth/service"

	"github.com/labstack/echo/v4"
)

// Init wires the auth routes and returns the credential service so the
// application context can hand the same instance to every dependent module.
// The in-memory connection states live on that one instance; a second one
// would stop invalidations from being visible on the status endpoint.
func Init(e *echo.Echo, db database.Database) service.CredentialServiceInterface {
	credentialService := GetService(db)
	authController := controller.NewAuthController(credentialService)
	mw := middleware.NewMiddleware()

	router.NewAuthRouter(authController).Setup(e, mw)
	return credentialService
}

// GetService creates a CredentialService instance for use by other modules.
// A missing OAuth client id disables the integration but is not fatal: the
// service keeps serving reminders without a calendar connection.
func GetService(db database.Database) service.CredentialServiceInterface {
	repo := repository.NewCredentialRepository(db)
	credentialService := service.NewCredentialService(repo)
	if err := credentialService.Initialize(); err != nil {
		if err.Code == errors.ErrMissingCredential {
			logger.Warn("Auth:Init:IntegrationDisabled", "reason", err.Message)
		} else {
			logger.Error("Auth:Init:Error", "error", err)
		}
	}
	return credentialService
}
