package router

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController *controller.EventController
}

func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{EventController: eventController}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())
	eventRoutes.POST("", r.EventController.CreateEvent)
	eventRoutes.GET("", r.EventController.ListEvents)
	eventRoutes.GET("/:id", r.EventController.GetEvent)
	eventRoutes.PUT("/:id", r.EventController.UpdateEvent)
	eventRoutes.DELETE("/:id", r.EventController.DeleteEvent)
	eventRoutes.GET("/:id/roster", r.EventController.GetRoster)
	eventRoutes.GET("/:id/roles", r.EventController.GetEventRoles)

	privateRoutes.GET("/catalog/roles", r.EventController.GetCatalogRoles, mw.AuthMiddleware())

	// calendar feeds are fetched by calendar clients that carry no operator token
	publicRoutes := v1.Group("/public")
	publicRoutes.GET("/events/:id/calendar.ics", r.EventController.ExportCalendar)
}
