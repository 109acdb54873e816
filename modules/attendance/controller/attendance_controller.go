package controller

import (
	"go-event-roster/core/controller"
	"go-event-roster/core/errors"
	"go-event-roster/modules/attendance/dto"
	"go-event-roster/modules/attendance/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AttendanceController receives RSVP presses from the chat bridge.
type AttendanceController struct {
	controller.BaseController
	AttendanceService service.AttendanceServiceInterface
}

func NewAttendanceController(svc service.AttendanceServiceInterface) *AttendanceController {
	return &AttendanceController{
		BaseController:    controller.NewBaseController(),
		AttendanceService: svc,
	}
}

// Respond handles POST /intake/events/:id/responses
func (c *AttendanceController) Respond(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.IntakeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.AttendanceService.Handle(ctx.Request().Context(), eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Response recorded")
}
