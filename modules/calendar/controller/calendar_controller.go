package controller

import (
	"go-agenda-sync/core/controller"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/calendar/dto"
	"go-agenda-sync/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	service service.CalendarServiceInterface
	controller.BaseController
}

func NewCalendarController(service service.CalendarServiceInterface) *CalendarController {
	return &CalendarController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// Sync reconciles the local collection with the remote calendar
// @Summary Trigger a calendar sync
// @Tags Calendar
// @Produce json
// @Success 200 {object} dto.SyncResult
// @Failure 401 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /calendar/sync [post]
func (c *CalendarController) Sync(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	result, err := c.service.Sync(ctx.Request().Context(), userKey)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, result, "Calendar synchronized")
}

// ListEvents returns the stored event collection
// @Summary List calendar events
// @Tags Calendar
// @Produce json
// @Router /calendar/events [get]
func (c *CalendarController) ListEvents(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	events, err := c.service.ListEvents(ctx.Request().Context(), userKey)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, events, "Events retrieved")
}

// CreateEvent adds a local event, optionally pushing it to the remote calendar
// @Summary Create a calendar event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event fields"
// @Router /calendar/events [post]
func (c *CalendarController) CreateEvent(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	req := new(dto.CreateEventRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	event, err := c.service.CreateEvent(ctx.Request().Context(), userKey, req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	return c.SuccessResponse(ctx, event, "Event created")
}
