package lock

import (
	"time"

	"go-event-roster/core/cache"
	"go-event-roster/core/clock"
	"go-event-roster/core/logger"
	"go-event-roster/core/middleware"
	eventRepo "go-event-roster/modules/event/repository"
	"go-event-roster/modules/lock/controller"
	"go-event-roster/modules/lock/repository"
	"go-event-roster/modules/lock/router"
	"go-event-roster/modules/lock/service"

	"github.com/labstack/echo/v4"
)

const StoreMemory = "memory"

// Init registers the lock routes and returns the service other modules guard edits with.
func Init(e *echo.Echo, events eventRepo.EventRepositoryInterface, redisCache cache.Cache, storeKind string, ttl time.Duration, clk clock.Clock, mw *middleware.Middleware) service.LockServiceInterface {
	var store repository.Store
	if storeKind == StoreMemory || redisCache == nil {
		logger.Info("Lock:Init:Store", "store", StoreMemory)
		store = repository.NewMemoryStore()
	} else {
		store = repository.NewRedisStore(redisCache)
	}

	svc := service.NewLockService(store, events, clk, ttl)
	ctrl := controller.NewLockController(svc)
	router.NewLockRouter(ctrl).Setup(e, mw)
	return svc
}
