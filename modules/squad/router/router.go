package router

import (
	"go-event-roster/core/middleware"
	"go-event-roster/modules/squad/controller"

	"github.com/labstack/echo/v4"
)

type SquadRouter struct {
	SquadController *controller.SquadController
}

func NewSquadRouter(squadController *controller.SquadController) *SquadRouter {
	return &SquadRouter{SquadController: squadController}
}

func (r *SquadRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	squadRoutes := privateRoutes.Group("/events/:id/squads", mw.AuthMiddleware())
	squadRoutes.GET("", r.SquadController.List)
	squadRoutes.POST("/build", r.SquadController.Build)
	squadRoutes.POST("/refresh", r.SquadController.Refresh)
	squadRoutes.POST("/publish", r.SquadController.Publish)
	squadRoutes.PUT("/members/:participantId/role", r.SquadController.SetMemberRole)
	squadRoutes.PUT("/members/:participantId/move", r.SquadController.MoveMember)
}
