package controller

import (
	"go-event-roster/core/controller"
	"go-event-roster/core/errors"
	"go-event-roster/core/middleware"
	"go-event-roster/modules/lock/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LockController exposes edit-lock heartbeats to the dashboard.
type LockController struct {
	controller.BaseController
	LockService service.LockServiceInterface
}

func NewLockController(svc service.LockServiceInterface) *LockController {
	return &LockController{
		BaseController: controller.NewBaseController(),
		LockService:    svc,
	}
}

// Acquire handles POST /events/:id/lock. Calling it again renews the lock.
func (c *LockController) Acquire(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.LockService.Acquire(ctx.Request().Context(), eventID, actor.ID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Lock acquired")
}

// Release handles POST /events/:id/unlock.
func (c *LockController) Release(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.LockService.Release(ctx.Request().Context(), eventID, actor.ID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Lock released")
}

// Status handles GET /events/:id/lock.
func (c *LockController) Status(ctx echo.Context) error {
	actor, _ := middleware.ActorFrom(ctx)
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.LockService.Status(ctx.Request().Context(), eventID, actor.ID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
