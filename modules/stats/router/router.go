package router

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/stats/controller"

	"github.com/labstack/echo/v4"
)

type StatsRouter struct {
	StatsController *controller.StatsController
}

func NewStatsRouter(statsController *controller.StatsController) *StatsRouter {
	return &StatsRouter{StatsController: statsController}
}

func (r *StatsRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	privateRoutes.GET("/stats/engagement", r.StatsController.Engagement, mw.AuthMiddleware())
}
