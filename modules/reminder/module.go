package reminder

import (
	"go-agenda-sync/core/cache"
	"go-agenda-sync/core/database"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/notification"
	"go-agenda-sync/modules/reminder/controller"
	"go-agenda-sync/modules/reminder/repository"
	"go-agenda-sync/modules/reminder/router"
	"go-agenda-sync/modules/reminder/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.Database, store cache.Cache) {
	repo := repository.NewReminderRepository(store)
	reminderService := service.NewReminderService(repo)
	reminderController := controller.NewReminderController(reminderService)
	mw := middleware.NewMiddleware()

	router.NewReminderRouter(reminderController).Setup(e, mw)
}

// GetScheduler builds the due-check scheduler with the notification
// dispatcher wired in, for the worker side of the process.
func GetScheduler(db database.Database, store cache.Cache) *service.Scheduler {
	repo := repository.NewReminderRepository(store)
	dispatcher := notification.GetDispatcher(db)
	return service.NewScheduler(repo, store, dispatcher)
}
