package router

import (
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{controller: controller}
}

func (r *CalendarRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	group := e.Group("/api/v1/calendar", mw.UserKeyMiddleware())
	group.POST("/sync", r.controller.Sync)
	group.GET("/events", r.controller.ListEvents)
	group.POST("/events", r.controller.CreateEvent)
}
