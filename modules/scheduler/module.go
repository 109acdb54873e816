package scheduler

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/scheduler/controller"
	"go-event-roster/modules/scheduler/router"
	"go-event-roster/modules/scheduler/service"

	"github.com/labstack/echo/v4"
)

// Init registers the manual venue triggers for an already built scheduler.
func Init(e *echo.Echo, svc *service.SchedulerService, mw *middleware.Middleware) {
	ctrl := controller.NewSchedulerController(svc)
	router.NewSchedulerRouter(ctrl).Setup(e, mw)
}
