package app

import (
	"time"

	apphttp "github.com/openacademy/trilhas-backend/internal/http"
	httpH "github.com/openacademy/trilhas-backend/internal/http/handlers"
	httpMW "github.com/openacademy/trilhas-backend/internal/http/middleware"
	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	Auth           *httpH.AuthHandler
	Inscription    *httpH.InscriptionHandler
	Turma          *httpH.TurmaHandler
	EnrollmentFlow *httpH.EnrollmentFlowHandler
	Stats          *httpH.StatsHandler
	Realtime       *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub, started time.Time) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(started),
		Auth:           httpH.NewAuthHandler(services.Auth, services.Verification),
		Inscription:    httpH.NewInscriptionHandler(log, services.Inscriptions),
		Turma:          httpH.NewTurmaHandler(log, services.Inscriptions),
		EnrollmentFlow: httpH.NewEnrollmentFlowHandler(services.EnrollmentFlow),
		Stats:          httpH.NewStatsHandler(services.Stats),
		Realtime:       httpH.NewRealtimeHandler(log, sseHub),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, services Services, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                   log,
		Metrics:               metrics,
		CORSOrigins:           cfg.Origins(),
		ServiceName:           cfg.OtelServiceName,
		TracingEnabled:        cfg.OtelEnabled,
		AuthMiddleware:        middleware.Auth,
		AuthHandler:           handlers.Auth,
		InscriptionHandler:    handlers.Inscription,
		TurmaHandler:          handlers.Turma,
		EnrollmentFlowHandler: handlers.EnrollmentFlow,
		StatsHandler:          handlers.Stats,
		RealtimeHandler:       handlers.Realtime,
		HealthHandler:         handlers.Health,
		Resources:             services.Resources,
	})
}
