package router

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/attendance/controller"

	"github.com/labstack/echo/v4"
)

type AttendanceRouter struct {
	AttendanceController *controller.AttendanceController
}

func NewAttendanceRouter(attendanceController *controller.AttendanceController) *AttendanceRouter {
	return &AttendanceRouter{AttendanceController: attendanceController}
}

func (r *AttendanceRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	intakeRoutes := v1.Group("/intake", mw.IntakeMiddleware())
	intakeRoutes.POST("/events/:id/responses", r.AttendanceController.Respond)
}
