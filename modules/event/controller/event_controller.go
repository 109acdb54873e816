package controller

import (
	"net/http"

	"go-event-roster/core/controller"
	"go-event-roster/core/errors"
	"go-event-roster/core/middleware"
	"go-event-roster/core/params"
	"go-event-roster/modules/event/dto"
	"go-event-roster/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventController handles event HTTP requests
type EventController struct {
	controller.BaseController
	EventService service.EventServiceInterface
}

func NewEventController(svc service.EventServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   svc,
	}
}

func (c *EventController) eventID(ctx echo.Context) (uuid.UUID, error) {
	return uuid.Parse(ctx.Param("id"))
}

// CreateEvent handles POST /events
func (c *EventController) CreateEvent(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.CreateEvent(ctx.Request().Context(), actor, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, result, "Event created successfully")
}

// ListEvents handles GET /events?mine=&archived=&upcoming=&page=&page_size=
func (c *EventController) ListEvents(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	page := params.PaginationFromQuery(ctx)
	query := dto.ListEventsQuery{
		Mine:            params.BoolQuery(ctx, "mine", false),
		IncludeArchived: params.BoolQuery(ctx, "archived", false),
		Upcoming:        params.BoolQuery(ctx, "upcoming", false),
		Page:            page.Page,
		PageSize:        page.PageSize,
	}

	result, appErr := c.EventService.ListEvents(ctx.Request().Context(), actor, query)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// GetEvent handles GET /events/:id
func (c *EventController) GetEvent(ctx echo.Context) error {
	eventID, err := c.eventID(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetEvent(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// UpdateEvent handles PUT /events/:id
func (c *EventController) UpdateEvent(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := c.eventID(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.UpdateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.UpdateEvent(ctx.Request().Context(), actor, eventID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event updated successfully")
}

// DeleteEvent handles DELETE /events/:id
func (c *EventController) DeleteEvent(ctx echo.Context) error {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}
	eventID, err := c.eventID(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.EventService.DeleteEvent(ctx.Request().Context(), actor, eventID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}

// GetRoster handles GET /events/:id/roster
func (c *EventController) GetRoster(ctx echo.Context) error {
	eventID, err := c.eventID(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.Roster(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// GetEventRoles handles GET /events/:id/roles
func (c *EventController) GetEventRoles(ctx echo.Context) error {
	eventID, err := c.eventID(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.Roles(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// GetCatalogRoles handles GET /catalog/roles
func (c *EventController) GetCatalogRoles(ctx echo.Context) error {
	return c.SuccessResponse(ctx, c.EventService.CatalogRoles(), "Success")
}

// ExportCalendar handles GET /events/:id/calendar.ics
func (c *EventController) ExportCalendar(ctx echo.Context) error {
	eventID, err := c.eventID(ctx)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	body, appErr := c.EventService.ExportICS(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+eventID.String()+`.ics"`)
	return ctx.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
