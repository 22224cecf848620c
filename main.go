package main

import (
	"context"
	"net/http"

	"github.com/Eursukkul/booking-microservice/scheduling-service/config"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/consumer"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/directory"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/handler"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/service"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/cache"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/logger"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/metrics"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Tenant isolation
	var runner database.TenantRunner
	switch cfg.TenantMode {
	case config.TenantModeShared:
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("failed to migrate")
		}
		runner = database.NewSharedRunner(db)
	default:
		schemas := database.NewSchemaRunner(db, cfg.TenantSchemaPrefix)
		for _, tenant := range cfg.Tenants {
			if err := schemas.Provision(ctx, tenant); err != nil {
				log.WithError(err).WithField("tenant", tenant).Fatal("failed to provision tenant")
			}
		}
		runner = schemas
	}

	// Class type cache (optional)
	var classTypes service.ClassTypeCache
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		classTypes = cache.NewClassTypeCache(rdb, cfg.ClassTypeCacheTTL)
	}

	names := directory.NewCached(directory.NewGormDirectory(runner), cfg.DirectoryCacheSize, cfg.DirectoryCacheTTL)

	// RabbitMQ (optional): publish scheduling events, consume member changes
	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		mqPublisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer mqPublisher.Close()
		publisher = mqPublisher

		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, rabbitmq.MembersExchange, rabbitmq.MembersQueue,
			consumer.MemberUpdated, consumer.MemberDeleted)
		if err != nil {
			log.WithError(err).Fatal("failed to bind member queue")
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			log.WithError(err).Fatal("failed to start consuming")
		}
		consumer.NewMemberConsumer(names, log).Start(msgs)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Services
	repos := repository.NewRepositories()
	catalogSvc := service.NewCatalogService(runner, repos, classTypes, log)
	templateSvc := service.NewTemplateService(runner, repos, log)
	generatorSvc := service.NewGeneratorService(runner, repos, publisher, m, log)
	sessionSvc := service.NewSessionService(runner, repos, publisher, m, log)
	bookingSvc := service.NewBookingService(runner, repos, names, publisher, m, log)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = middleware.NewRequestValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "scheduling-service"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", middleware.Identity())
	handler.NewClassTypeHandler(catalogSvc).RegisterRoutes(api.Group("/class-types"))
	handler.NewTemplateHandler(templateSvc).RegisterRoutes(api.Group("/templates"))
	handler.NewSessionHandler(sessionSvc, generatorSvc, bookingSvc).RegisterRoutes(api.Group("/sessions"))
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api)

	log.Infof("Scheduling Service starting on :%s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server stopped")
	}
}
