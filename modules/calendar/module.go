package calendar

import (
	"go-agenda-sync/core/cache"
	"go-agenda-sync/core/middleware"
	authService "go-agenda-sync/modules/auth/service"
	"go-agenda-sync/modules/calendar/controller"
	"go-agenda-sync/modules/calendar/repository"
	"go-agenda-sync/modules/calendar/router"
	"go-agenda-sync/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// Init takes the shared credential service by reference: an invalidation
// performed by the calendar client must be visible on the auth status routes.
func Init(e *echo.Echo, store cache.Cache, credentials authService.CredentialServiceInterface) {
	repo := repository.NewEventRepository(store)
	calendarService := service.NewCalendarService(repo, credentials)
	calendarController := controller.NewCalendarController(calendarService)

	mw := middleware.NewMiddleware()

	router.NewCalendarRouter(calendarController).Setup(e, mw)
}
