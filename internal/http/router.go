package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/domain/user"
	httpH "github.com/openacademy/trilhas-backend/internal/http/handlers"
	httpMW "github.com/openacademy/trilhas-backend/internal/http/middleware"
	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/services"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	ServiceName    string
	TracingEnabled bool

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler           *httpH.AuthHandler
	InscriptionHandler    *httpH.InscriptionHandler
	TurmaHandler          *httpH.TurmaHandler
	EnrollmentFlowHandler *httpH.EnrollmentFlowHandler
	StatsHandler          *httpH.StatsHandler
	RealtimeHandler       *httpH.RealtimeHandler
	HealthHandler         *httpH.HealthHandler

	Resources *services.Resources
}

var staff = []user.Role{user.RoleAdmin, user.RoleCoordenador}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recovery(cfg.Log))
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	am := cfg.AuthMiddleware
	if am != nil {
		api.Use(am.OptionalAuth())
	}

	// Auth
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/verify", cfg.AuthHandler.Verify)
		api.POST("/auth/resend-code", cfg.AuthHandler.ResendCode)
		api.GET("/auth/me", cfg.AuthHandler.Me)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil && am != nil {
		api.GET("/sse/stream", am.RequireAuth(), cfg.RealtimeHandler.SSEStream)
	}

	// Enrollment
	if cfg.InscriptionHandler != nil {
		h := cfg.InscriptionHandler
		api.POST("/turma-inscriptions", h.Enroll)
		api.POST("/turma-inscriptions/:id/approve", h.Event(enrollment.EventApprove))
		api.POST("/turma-inscriptions/:id/reject", h.Event(enrollment.EventReject))
		api.POST("/turma-inscriptions/:id/activate", h.Event(enrollment.EventActivate))
		api.POST("/turma-inscriptions/:id/complete", h.Event(enrollment.EventComplete))
		api.POST("/turma-inscriptions/:id/cancel", h.Event(enrollment.EventCancel))
		api.PATCH("/turma-inscriptions/:id/progress", h.Progress)
		api.PATCH("/turma-inscriptions/:id", h.Patch)
		api.DELETE("/turma-inscriptions/:id", h.Delete)
	}
	if cfg.TurmaHandler != nil {
		api.POST("/turmas/:id/start", cfg.TurmaHandler.Start)
		api.POST("/turmas/:id/sync", cfg.TurmaHandler.Sync)
	}
	if cfg.EnrollmentFlowHandler != nil {
		api.GET("/enrollment-flow", cfg.EnrollmentFlowHandler.Snapshot)
		api.POST("/enrollment-flow/submit", cfg.EnrollmentFlowHandler.Submit)
	}

	// Stats
	if cfg.StatsHandler != nil {
		if am != nil {
			api.GET("/stats/admin", am.RequireAuth(), httpMW.RequireRole(staff...), cfg.StatsHandler.Admin)
		} else {
			api.GET("/stats/admin", cfg.StatsHandler.Admin)
		}
		api.GET("/stats/trilhas", cfg.StatsHandler.Trilhas)
		api.GET("/stats/inscriptions", cfg.StatsHandler.Inscriptions)
	}

	// Generic collections
	if res := cfg.Resources; res != nil {
		users := httpH.NewResourceHandler(cfg.Log, res.Users)
		users.Create = httpH.Roles(user.RoleAdmin)
		users.Update = httpH.SelfOrAdmin
		users.Delete = httpH.SelfOrAdmin
		users.Guard = httpH.ProtectUserFields
		mountResource(api, users, true)

		for _, rsc := range []services.Resource{res.Trilhas, res.Turmas} {
			h := httpH.NewResourceHandler(cfg.Log, rsc)
			h.Create = httpH.Roles(staff...)
			h.Update = httpH.Roles(staff...)
			h.Delete = httpH.Roles(staff...)
			mountResource(api, h, true)
		}

		// Writes are registered by InscriptionHandler above.
		mountResource(api, httpH.NewResourceHandler(cfg.Log, res.TurmaInscriptions), false)

		certs := httpH.NewResourceHandler(cfg.Log, res.Certificates)
		certs.Create = httpH.Roles(user.RoleAdmin)
		certs.Update = httpH.Roles(user.RoleAdmin)
		certs.Delete = httpH.Roles(user.RoleAdmin)
		mountResource(api, certs, true)

		legacy := httpH.NewResourceHandler(cfg.Log, res.LegacyInscriptions)
		legacy.Create = httpH.Authenticated
		legacy.Update = httpH.Roles(user.RoleAdmin)
		legacy.Delete = httpH.Roles(user.RoleAdmin)
		mountResource(api.Group("", httpMW.Deprecated()), legacy, true)
	}

	return r
}

func mountResource(g *gin.RouterGroup, h *httpH.ResourceHandler, writes bool) {
	base := "/" + h.Name()
	g.GET(base, h.List)
	g.GET(base+"/:id", h.Get)
	if !writes {
		return
	}
	g.POST(base, h.PostRecord)
	g.PATCH(base+"/:id", h.PatchRecord)
	g.DELETE(base+"/:id", h.DeleteRecord)
}
