package controller

import (
	"go-event-roster/core/controller"
	"go-event-roster/modules/stats/service"

	"github.com/labstack/echo/v4"
)

type StatsController struct {
	controller.BaseController
	StatsService service.StatsServiceInterface
}

func NewStatsController(svc service.StatsServiceInterface) *StatsController {
	return &StatsController{
		BaseController: controller.NewBaseController(),
		StatsService:   svc,
	}
}

// Engagement handles GET /stats/engagement
func (c *StatsController) Engagement(ctx echo.Context) error {
	result, appErr := c.StatsService.Engagement(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
