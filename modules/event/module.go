package event

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/event/controller"
	"go-event-roster/modules/event/router"
	"go-event-roster/modules/event/service"

	"github.com/labstack/echo/v4"
)

// Init registers the event routes on top of an already built service.
func Init(e *echo.Echo, svc *service.EventService, mw *middleware.Middleware) {
	ctrl := controller.NewEventController(svc)
	router.NewEventRouter(ctrl).Setup(e, mw)
}
