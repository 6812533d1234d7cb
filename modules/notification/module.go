package notification

import (
	"go-agenda-sync/core/database"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/notification/controller"
	"go-agenda-sync/modules/notification/repository"
	"go-agenda-sync/modules/notification/router"
	"go-agenda-sync/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database) {
	repo := repository.NewNotificationRepository(db)
	notificationController := controller.NewNotificationController(repo)
	mw := middleware.NewMiddleware()

	router.NewNotificationRouter(notificationController).Setup(e, mw)
}

// GetDispatcher creates the fan-out dispatcher for use by the reminder
// scheduler.
func GetDispatcher(db database.Database) service.DispatcherInterface {
	repo := repository.NewNotificationRepository(db)
	return service.NewDispatcher(repo)
}
