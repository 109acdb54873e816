package attendance

import (
	"go-event-roster/core/clock"
	"go-event-roster/core/middleware"
	"go-event-roster/modules/attendance/controller"
	"go-event-roster/modules/attendance/router"
	"go-event-roster/modules/attendance/service"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/venue/gateway"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, repo repository.EventRepositoryInterface, publisher service.RosterMarker, venue gateway.Gateway, clk clock.Clock, mw *middleware.Middleware) *service.AttendanceService {
	svc := service.NewAttendanceService(repo, publisher, venue, clk)
	ctrl := controller.NewAttendanceController(svc)
	router.NewAttendanceRouter(ctrl).Setup(e, mw)
	return svc
}
