package middleware

import (
	"crypto/subtle"

	"go-event-roster/core/constants"
	"go-event-roster/core/controller"
	"go-event-roster/core/errors"
	"go-event-roster/core/logger"
	"go-event-roster/core/params"
	"go-event-roster/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	controller.BaseController
	intakeToken string
	managerRole string
}

func NewMiddleware(intakeToken string, managerRole string) *Middleware {
	return &Middleware{
		BaseController: controller.NewBaseController(),
		intakeToken:    intakeToken,
		managerRole:    managerRole,
	}
}

// AuthMiddleware verifies the operator bearer token and stores its claims
// under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := utils.GetTokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return m.Unauthorized(errors.ErrUnauthorized, err.Error())
			}

			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				logger.Warn("Middleware:AuthMiddleware:ValidateAndParseToken", "error", err)
				return m.Unauthorized(errors.ErrUnauthorized, "invalid token")
			}

			c.Set(constants.ContextTokenData, claims)
			c.Set(constants.ContextActor, params.Actor{
				ID:      claims.OperatorID(),
				Name:    claims.Name,
				Manager: claims.HasRole(m.managerRole),
			})
			return next(c)
		}
	}
}

// IntakeMiddleware guards the response intake endpoint used by the bot bridge.
func (m *Middleware) IntakeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(constants.HeaderIntakeToken)
			if m.intakeToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(m.intakeToken)) != 1 {
				return m.Unauthorized(errors.ErrUnauthorized, "invalid intake token")
			}
			return next(c)
		}
	}
}

// ActorFrom returns the operator set by AuthMiddleware.
func ActorFrom(c echo.Context) (params.Actor, bool) {
	actor, ok := c.Get(constants.ContextActor).(params.Actor)
	return actor, ok && actor.ID != ""
}
