package router

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/lock/controller"

	"github.com/labstack/echo/v4"
)

type LockRouter struct {
	LockController *controller.LockController
}

func NewLockRouter(lockController *controller.LockController) *LockRouter {
	return &LockRouter{LockController: lockController}
}

func (r *LockRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())
	eventRoutes.POST("/:id/lock", r.LockController.Acquire)
	eventRoutes.POST("/:id/unlock", r.LockController.Release)
	eventRoutes.GET("/:id/lock", r.LockController.Status)
}
