package controller

import (
	"strconv"

	"go-agenda-sync/core/controller"
	"go-agenda-sync/core/errors"
	"go-agenda-sync/core/middleware"
	"go-agenda-sync/modules/notification/dto"
	"go-agenda-sync/modules/notification/repository"

	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	repo repository.NotificationRepositoryInterface
	controller.BaseController
}

func NewNotificationController(repo repository.NotificationRepositoryInterface) *NotificationController {
	return &NotificationController{
		repo:           repo,
		BaseController: controller.NewBaseController(),
	}
}

// GetMyNotifications returns the in-app notification feed
// @Summary List notifications
// @Tags Notification
// @Produce json
// @Param limit query int false "Maximum entries"
// @Router /notifications [get]
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	notifications, err := c.repo.GetByUserKey(ctx.Request().Context(), userKey, limit)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to get notifications", err)
	}

	return c.SuccessResponse(ctx, notifications, "Notifications retrieved successfully")
}

// CountUnread counts unread notifications
// @Summary Unread notification count
// @Tags Notification
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Router /notifications/unread-count [get]
func (c *NotificationController) CountUnread(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	count, err := c.repo.CountUnread(ctx.Request().Context(), userKey)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to count unread", err)
	}

	return c.SuccessResponse(ctx, dto.UnreadCountResponse{Count: count}, "Unread count retrieved")
}

// MarkAllAsRead marks all notifications as read
// @Summary Mark all notifications read
// @Tags Notification
// @Produce json
// @Router /notifications/mark-all-read [put]
func (c *NotificationController) MarkAllAsRead(ctx echo.Context) error {
	userKey := middleware.UserKeyFromContext(ctx)

	if err := c.repo.MarkAllAsRead(ctx.Request().Context(), userKey); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to mark all as read", err)
	}

	return c.SuccessResponse(ctx, nil, "Marked all as read successfully")
}
