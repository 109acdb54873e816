package controller

import (
	"go-event-roster/core/controller"
	"go-event-roster/core/errors"
	"go-event-roster/core/middleware"
	"go-event-roster/modules/scheduler/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SchedulerController exposes operator re-triggers for venue lifecycle steps.
type SchedulerController struct {
	controller.BaseController
	SchedulerService service.SchedulerServiceInterface
}

func NewSchedulerController(svc service.SchedulerServiceInterface) *SchedulerController {
	return &SchedulerController{
		BaseController:   controller.NewBaseController(),
		SchedulerService: svc,
	}
}

// OpenVenue handles POST /events/:id/venue/open
func (c *SchedulerController) OpenVenue(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.SchedulerService.OpenNow(ctx.Request().Context(), actor, eventID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Venue opened")
}

// CloseVenue handles POST /events/:id/venue/close
func (c *SchedulerController) CloseVenue(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.SchedulerService.CloseNow(ctx.Request().Context(), actor, eventID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Venue closed")
}
