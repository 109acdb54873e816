package stats

import (
	"go-event-roster/core/clock"
	"go-event-roster/core/middleware"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/stats/controller"
	"go-event-roster/modules/stats/router"
	"go-event-roster/modules/stats/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, repo repository.EventRepositoryInterface, clk clock.Clock, mw *middleware.Middleware) {
	svc := service.NewStatsService(repo, clk)
	ctrl := controller.NewStatsController(svc)
	router.NewStatsRouter(ctrl).Setup(e, mw)
}
