package squad

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/event/repository"
	"go-event-roster/modules/squad/controller"
	"go-event-roster/modules/squad/policy"
	"go-event-roster/modules/squad/router"
	"go-event-roster/modules/squad/service"
	"go-event-roster/modules/venue/gateway"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, repo repository.EventRepositoryInterface, locks service.LockGuard, venue gateway.Gateway, pol *policy.Policy, mw *middleware.Middleware) {
	svc := service.NewSquadService(repo, locks, venue, pol)
	ctrl := controller.NewSquadController(svc)
	router.NewSquadRouter(ctrl).Setup(e, mw)
}
