package router

import (
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/reminder/controller"

	"github.com/labstack/echo/v4"
)

type ReminderRouter struct {
	controller *controller.ReminderController
}

func NewReminderRouter(controller *controller.ReminderController) *ReminderRouter {
	return &ReminderRouter{controller: controller}
}

func (r *ReminderRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	group := e.Group("/api/v1/reminders", mw.UserKeyMiddleware())
	group.GET("", r.controller.GetReminders)
	group.POST("", r.controller.CreateReminder)
	group.PUT("/:id", r.controller.UpdateReminder)
	group.PUT("/:id/complete", r.controller.CompleteReminder)
	group.DELETE("/:id", r.controller.DeleteReminder)
}
