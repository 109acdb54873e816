package router

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/scheduler/controller"

	"github.com/labstack/echo/v4"
)

type SchedulerRouter struct {
	SchedulerController *controller.SchedulerController
}

func NewSchedulerRouter(schedulerController *controller.SchedulerController) *SchedulerRouter {
	return &SchedulerRouter{SchedulerController: schedulerController}
}

func (r *SchedulerRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())
	eventRoutes.POST("/:id/venue/open", r.SchedulerController.OpenVenue)
	eventRoutes.POST("/:id/venue/close", r.SchedulerController.CloseVenue)
}
