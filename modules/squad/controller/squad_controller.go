package controller

import (
	"go-event-roster/core/controller"
	"go-event-roster/core/errors"
	"go-event-roster/core/middleware"
	"go-event-roster/core/params"
	"go-event-roster/modules/squad/dto"
	"go-event-roster/modules/squad/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SquadController serves the roster-editing dashboard.
type SquadController struct {
	controller.BaseController
	SquadService service.SquadServiceInterface
}

func NewSquadController(svc service.SquadServiceInterface) *SquadController {
	return &SquadController{
		BaseController: controller.NewBaseController(),
		SquadService:   svc,
	}
}

func (c *SquadController) actorAndEvent(ctx echo.Context) (params.Actor, uuid.UUID, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return actor, uuid.Nil, c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return actor, uuid.Nil, c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}
	return actor, eventID, nil
}

// Build handles POST /events/:id/squads/build
func (c *SquadController) Build(ctx echo.Context) error {
	actor, eventID, err := c.actorAndEvent(ctx)
	if err != nil {
		return err
	}
	var req dto.BuildSquadsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.SquadService.Build(ctx.Request().Context(), actor, eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Squads built")
}

// Refresh handles POST /events/:id/squads/refresh
func (c *SquadController) Refresh(ctx echo.Context) error {
	actor, eventID, err := c.actorAndEvent(ctx)
	if err != nil {
		return err
	}
	var req dto.RefreshSquadsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.SquadService.Refresh(ctx.Request().Context(), actor, eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Squads refreshed")
}

// List handles GET /events/:id/squads
func (c *SquadController) List(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.SquadService.List(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// SetMemberRole handles PUT /events/:id/squads/members/:participantId/role
func (c *SquadController) SetMemberRole(ctx echo.Context) error {
	actor, eventID, err := c.actorAndEvent(ctx)
	if err != nil {
		return err
	}
	var req dto.SetMemberRoleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.SquadService.SetMemberRole(ctx.Request().Context(), actor, eventID, ctx.Param("participantId"), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Member role updated")
}

// MoveMember handles PUT /events/:id/squads/members/:participantId/move
func (c *SquadController) MoveMember(ctx echo.Context) error {
	actor, eventID, err := c.actorAndEvent(ctx)
	if err != nil {
		return err
	}
	var req dto.MoveMemberRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.SquadService.MoveMember(ctx.Request().Context(), actor, eventID, ctx.Param("participantId"), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Member moved")
}

// Publish handles POST /events/:id/squads/publish
func (c *SquadController) Publish(ctx echo.Context) error {
	actor, eventID, err := c.actorAndEvent(ctx)
	if err != nil {
		return err
	}

	result, appErr := c.SquadService.Publish(ctx.Request().Context(), actor, eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Squads published")
}
