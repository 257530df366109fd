package app

import (
	"gorm.io/gorm"

	"github.com/openacademy/trilhas-backend/internal/data/aggregates"
	"github.com/openacademy/trilhas-backend/internal/data/repos"
	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/realtime"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type Services struct {
	Auth             services.AuthService
	Verification     services.VerificationService
	Inscriptions     services.InscriptionService
	EnrollmentFlow   services.EnrollmentFlowService
	Stats            services.StatsService
	Resources        *services.Resources
	ActivationWorker *services.ActivationWorker
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	set *repos.Set,
	clients Clients,
	publisher realtime.Publisher,
	metrics *observability.Metrics,
) Services {
	log.Info("Wiring services...")

	agg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentDeps{
		BaseDeps: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Users:        set.Users,
		Trilhas:      set.Trilhas,
		Turmas:       set.Turmas,
		Inscriptions: set.TurmaInscriptions,
		Certificates: set.Certificates,
	})

	var mailer services.Mailer
	if clients.Sendgrid != nil {
		mailer = services.NewSendgridMailer(log, clients.Sendgrid, metrics)
	} else {
		log.Warn("SENDGRID_API_KEY not set; verification codes are only logged")
		mailer = services.NewLogMailer(log, metrics)
	}

	var codes services.CodeStore
	if clients.Redis != nil {
		codes = services.NewRedisCodeStore(clients.Redis)
	} else {
		codes = services.NewDBCodeStore(set.Verifications)
	}

	verification := services.NewVerificationService(log, set.Users, codes, mailer, publisher, cfg.VerificationCodeTTL)
	auth := services.NewAuthService(log, set.Users, verification, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	inscriptions := services.NewInscriptionService(log, agg, set.TurmaInscriptions, set.Turmas, publisher, metrics)

	return Services{
		Auth:             auth,
		Verification:     verification,
		Inscriptions:     inscriptions,
		EnrollmentFlow:   services.NewEnrollmentFlowService(log, set.Users, set.Turmas, set.TurmaInscriptions, inscriptions),
		Stats:            services.NewStatsService(log, set.Stats),
		Resources:        services.NewResources(log, set, agg, publisher),
		ActivationWorker: services.NewActivationWorker(log, set.Turmas, inscriptions, metrics, cfg.ActivationSweepInterval),
	}
}
