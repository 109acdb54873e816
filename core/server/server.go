package server

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"go-event-roster/core/cache"
	"go-event-roster/core/clock"
	"go-event-roster/core/config"
	"go-event-roster/core/database"
	"go-event-roster/core/logger"
	"go-event-roster/core/middleware"
	"go-event-roster/modules/archive"
	"go-event-roster/modules/attendance"
	"go-event-roster/modules/event"
	"go-event-roster/modules/event/catalog"
	eventRepo "go-event-roster/modules/event/repository"
	eventService "go-event-roster/modules/event/service"
	"go-event-roster/modules/lock"
	"go-event-roster/modules/scheduler"
	"go-event-roster/modules/scheduler/queue"
	schedulerService "go-event-roster/modules/scheduler/service"
	"go-event-roster/modules/squad"
	"go-event-roster/modules/squad/policy"
	"go-event-roster/modules/stats"
	"go-event-roster/modules/venue/gateway"
	venueService "go-event-roster/modules/venue/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const (
	BackendAsynq = "asynq"
	DriverHTTP   = "http"

	shutdownTimeout = 15 * time.Second
)

// app holds everything Run starts and stops.
type app struct {
	cfg        *config.Config
	echo       *echo.Echo
	db         *database.Database
	redis      *cache.RedisCache
	publisher  *venueService.RosterPublisher
	scheduler  *schedulerService.SchedulerService
	recurrence *cron.Cron

	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
}

// Run builds the service from configPath and serves until ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	a, err := build(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return a.serve(ctx)
}

// Migrate applies pending schema migrations and exits.
func Migrate(ctx context.Context, configPath string) error {
	cfg, err := setup(configPath)
	if err != nil {
		return err
	}
	// InitDB applies migrations on connect
	db, err := database.InitDB(databaseConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()
	return ctx.Err()
}

func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	return cfg, nil
}

func databaseConfig(cfg *config.Config) database.DatabaseConfig {
	return database.DatabaseConfig{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	}
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Scheduler.Backend == BackendAsynq || cfg.Lock.Store != lock.StoreMemory
}

func newGateway(cfg *config.Config) gateway.Gateway {
	if cfg.Venue.Driver == DriverHTTP {
		logger.Info("Server:Venue", "driver", DriverHTTP, "base_url", cfg.Venue.BaseURL)
		return gateway.NewHTTPGateway(gateway.HTTPGatewayConfig{
			BaseURL:       cfg.Venue.BaseURL,
			Token:         cfg.Venue.Token,
			RatePerSecond: cfg.Venue.RatePerSecond,
			Timeout:       time.Duration(cfg.Venue.TimeoutSeconds) * time.Second,
		})
	}
	logger.Info("Server:Venue", "driver", "log")
	return gateway.NewLogGateway()
}

func newArchiver(cfg *config.Config) (schedulerService.Archiver, error) {
	if cfg.Archive.Driver != archive.DriverS3 {
		return nil, nil
	}
	logger.Info("Server:Archive", "driver", archive.DriverS3, "bucket", cfg.Archive.Bucket)
	return archive.NewS3Archiver(archive.S3Config{
		Endpoint:        cfg.Archive.Endpoint,
		Region:          cfg.Archive.Region,
		Bucket:          cfg.Archive.Bucket,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
		Prefix:          cfg.Archive.Prefix,
	})
}

func build(cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.db, err = database.InitDB(databaseConfig(cfg))
	if err != nil {
		return nil, err
	}

	var redisCache cache.Cache
	if needsRedis(cfg) {
		a.redis, err = cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		redisCache = a.redis
	}

	roles, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	pol, err := policy.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}

	clk := clock.Real()
	venue := newGateway(cfg)
	repo := eventRepo.NewEventRepository(a.db)
	a.publisher = venueService.NewRosterPublisher(repo, venue)

	a.echo = newEcho()
	mw := middleware.NewMiddleware(cfg.Auth.IntakeToken, cfg.Auth.ManagerRole)

	lockTTL := time.Duration(cfg.Lock.TTLSeconds) * time.Second
	locks := lock.Init(a.echo, repo, redisCache, cfg.Lock.Store, lockTTL, clk, mw)

	eventSvc := eventService.NewEventService(repo, eventService.Options{
		Locks:           locks,
		DefaultCatalog:  roles,
		DefaultTimezone: cfg.Scheduler.DefaultTimezone,
	})

	fireTimeout := time.Duration(cfg.Scheduler.FireTimeoutSeconds) * time.Second
	timers, err := a.newTimerQueue(clk, fireTimeout)
	if err != nil {
		return nil, err
	}
	archiver, err := newArchiver(cfg)
	if err != nil {
		return nil, err
	}
	a.scheduler = schedulerService.NewSchedulerService(repo, venue, timers, schedulerService.Options{
		Publisher:           a.publisher,
		Archiver:            archiver,
		Clock:               clk,
		FireTimeout:         fireTimeout,
		RecoveryConcurrency: cfg.Scheduler.RecoveryConcurrency,
	})
	eventSvc.SetLifecycle(a.scheduler)

	if cfg.Scheduler.RecurrenceCron != "" {
		a.recurrence, err = schedulerService.NewRecurrenceCron(a.scheduler, cfg.Scheduler.RecurrenceCron, fireTimeout)
		if err != nil {
			return nil, err
		}
	}

	event.Init(a.echo, eventSvc, mw)
	attendance.Init(a.echo, repo, a.publisher, venue, clk, mw)
	squad.Init(a.echo, repo, locks, venue, pol, mw)
	scheduler.Init(a.echo, a.scheduler, mw)
	stats.Init(a.echo, repo, clk, mw)

	return a, nil
}

func (a *app) newTimerQueue(clk clock.Clock, fireTimeout time.Duration) (queue.TimerQueue, error) {
	if a.cfg.Scheduler.Backend != BackendAsynq {
		logger.Info("Server:Scheduler", "backend", "local")
		return queue.NewLocalQueue(clk), nil
	}

	opt := asynq.RedisClientOpt{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	}
	a.asynqClient = asynq.NewClient(opt)
	a.asynqInspector = asynq.NewInspector(opt)

	q := queue.NewAsynqQueue(a.asynqClient, a.asynqInspector, a.redis, a.cfg.Scheduler.Queue, fireTimeout)
	a.asynqMux = q.ServeMux()
	a.asynqServer = asynq.NewServer(opt, asynq.Config{
		Concurrency:     a.cfg.Scheduler.RecoveryConcurrency,
		Queues:          map[string]int{a.cfg.Scheduler.Queue: 1},
		ShutdownTimeout: shutdownTimeout,
		LogLevel:        asynq.WarnLevel,
	})
	logger.Info("Server:Scheduler", "backend", BackendAsynq, "queue", a.cfg.Scheduler.Queue)
	return q, nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("HTTP", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID, "error", v.Error)
				return nil
			}
			logger.Info("HTTP", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	return e
}

func (a *app) serve(ctx context.Context) error {
	if a.asynqServer != nil {
		if err := a.asynqServer.Start(a.asynqMux); err != nil {
			return fmt.Errorf("start asynq server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	addr := net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port))
	g.Go(func() error {
		logger.Info("Server:Start", "addr", addr)
		if err := a.echo.Start(addr); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.recurrence != nil {
		a.recurrence.Start()
	}

	g.Go(func() error {
		n, err := a.scheduler.Recover(gctx)
		if err != nil {
			logger.Error("Server:Recover", "error", err)
			return nil
		}
		logger.Info("Server:Recover", "events", n)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Server:Shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.echo.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server:Shutdown:HTTP", "error", err)
		}
		if a.recurrence != nil {
			<-a.recurrence.Stop().Done()
		}
		if a.asynqServer != nil {
			a.asynqServer.Shutdown()
		}
		a.publisher.Wait()
		return nil
	})

	return g.Wait()
}

func (a *app) close() {
	if a.asynqClient != nil {
		_ = a.asynqClient.Close()
	}
	if a.asynqInspector != nil {
		_ = a.asynqInspector.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
