//go:build wireinject
// +build wireinject

package di

import (
	"campusbook/config"
	"campusbook/infras/jwt"
	"campusbook/infras/kafka"
	"campusbook/infras/otel"
	"campusbook/infras/postgres"
	"campusbook/infras/redis"
	"campusbook/infras/s3"
	auditRepository "campusbook/internal/domains/audit/repository"
	auditService "campusbook/internal/domains/audit/service"
	authService "campusbook/internal/domains/auth/service"
	bookingRepository "campusbook/internal/domains/booking/repository"
	bookingService "campusbook/internal/domains/booking/service"
	"campusbook/internal/domains/booking/validation"
	"campusbook/internal/domains/policy"
	reportService "campusbook/internal/domains/report/service"
	resourceRepository "campusbook/internal/domains/resource/repository"
	resourceService "campusbook/internal/domains/resource/service"
	userRepository "campusbook/internal/domains/user/repository"
	userService "campusbook/internal/domains/user/service"
	auditHandler "campusbook/internal/handlers/audit"
	authHandler "campusbook/internal/handlers/auth"
	bookingHandler "campusbook/internal/handlers/booking"
	reportHandler "campusbook/internal/handlers/report"
	resourceHandler "campusbook/internal/handlers/resource"
	userHandler "campusbook/internal/handlers/user"
	"campusbook/permissions"
	"campusbook/shared/cache"
	"campusbook/transport/http"
	"campusbook/transport/http/middleware"
	"campusbook/transport/http/router"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
	policy.New,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var repositories = wire.NewSet(
	userRepository.New,
	resourceRepository.New,
	bookingRepository.New,
	auditRepository.New,
)

var domains = wire.NewSet(
	authService.New,
	userService.New,
	resourceService.New,
	validation.New,
	bookingService.New,
	auditService.New,
	reportService.New,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	resourceHandler.New,
	bookingHandler.New,
	auditHandler.New,
	reportHandler.New,
	router.New,
)

func InitializeService() (*http.HTTP, error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		repositories,
		domains,
		routing,
		http.New,
	)

	return nil, nil
}

// Worker consumes booking lifecycle events.
type Worker struct {
	Config *config.Config
	Kafka  kafka.Client
	Audit  auditService.AuditLog
}

func InitializeWorker() (*Worker, error) {
	wire.Build(
		configurations,
		postgres.New,
		otel.New,
		kafka.New,
		auditRepository.New,
		auditService.New,
		wire.Struct(new(Worker), "*"),
	)

	return nil, nil
}
