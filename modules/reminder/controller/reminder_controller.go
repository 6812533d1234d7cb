package controller

import (
	"go-agenda-sync/core/controller"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/reminder/dto"
	"go-agenda-sync/modules/reminder/service"

	"github.com/labstack/echo/v4"
)

type ReminderController struct {
	service service.ReminderServiceInterface
	controller.BaseController
}

func NewReminderController(service service.ReminderServiceInterface) *ReminderController {
	return &ReminderController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// GetReminders lists the user's reminders
// @Summary List reminders
// @Tags Reminder
// @Produce json
// @Router /reminders [get]
func (c *ReminderController) GetReminders(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	reminders, appErr := c.service.List(ctx.Request().Context(), userKey)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, reminders, "Reminders retrieved successfully")
}

// CreateReminder creates a reminder
// @Summary Create reminder
// @Tags Reminder
// @Accept json
// @Produce json
// @Param request body dto.CreateReminderRequest true "Reminder"
// @Router /reminders [post]
func (c *ReminderController) CreateReminder(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	var req dto.CreateReminderRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", err)
	}

	reminder, appErr := c.service.Create(ctx.Request().Context(), userKey, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, reminder, "Reminder created successfully")
}

// UpdateReminder updates a reminder; rescheduling re-arms its notification
// @Summary Update reminder
// @Tags Reminder
// @Accept json
// @Produce json
// @Param id path string true "Reminder id"
// @Param request body dto.UpdateReminderRequest true "Fields to change"
// @Router /reminders/{id} [put]
func (c *ReminderController) UpdateReminder(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	var req dto.UpdateReminderRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", err)
	}

	reminder, appErr := c.service.Update(ctx.Request().Context(), userKey, ctx.Param("id"), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, reminder, "Reminder updated successfully")
}

// CompleteReminder marks a reminder complete
// @Summary Complete reminder
// @Tags Reminder
// @Produce json
// @Param id path string true "Reminder id"
// @Router /reminders/{id}/complete [put]
func (c *ReminderController) CompleteReminder(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	reminder, appErr := c.service.Complete(ctx.Request().Context(), userKey, ctx.Param("id"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, reminder, "Reminder completed successfully")
}

// DeleteReminder removes a reminder
// @Summary Delete reminder
// @Tags Reminder
// @Produce json
// @Param id path string true "Reminder id"
// @Router /reminders/{id} [delete]
func (c *ReminderController) DeleteReminder(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	if appErr := c.service.Delete(ctx.Request().Context(), userKey, ctx.Param("id")); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Reminder deleted successfully")
}
