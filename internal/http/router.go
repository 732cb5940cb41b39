package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/formflow-backend/internal/domain/identity"
	httpH "github.com/yungbote/formflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/formflow-backend/internal/http/middleware"
	"github.com/yungbote/formflow-backend/internal/observability"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware
	SubmitLimiter  *httpMW.SubmitLimiter

	FormHandler    *httpH.FormHandler
	VersionHandler *httpH.VersionHandler
	EntryHandler   *httpH.EntryHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	// Public, optional auth
	public := api.Group("/")
	if cfg.AuthMiddleware != nil {
		public.Use(cfg.AuthMiddleware.OptionalAuth())
	}
	{
		if cfg.FormHandler != nil {
			public.GET("/forms", cfg.FormHandler.ListForms)
		}
		if cfg.VersionHandler != nil {
			public.GET("/versions/:id/initial-stage", cfg.VersionHandler.GetInitialStage)
		}
		if cfg.EntryHandler != nil {
			submit := cfg.SubmitLimiter.Handler()
			public.POST("/versions/:id/entries", submit, cfg.EntryHandler.SubmitInitial)
			public.GET("/entries/:public_id", cfg.EntryHandler.GetEntry)
			public.POST("/entries/:public_id/submit", submit, cfg.EntryHandler.SubmitLaterStage)
		}
	}

	// Authoring, forms.manage
	admin := api.Group("/")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAuth())
		admin.Use(cfg.AuthMiddleware.RequirePermission(identity.PermissionFormsManage))
	}
	{
		if cfg.FormHandler != nil {
			admin.POST("/forms", cfg.FormHandler.CreateForm)
			admin.POST("/forms/:id/versions", cfg.FormHandler.CreateVersion)
		}
		if cfg.VersionHandler != nil {
			admin.GET("/versions/:id", cfg.VersionHandler.GetVersion)
			admin.PUT("/versions/:id/structure", cfg.VersionHandler.RewriteDraft)
			admin.POST("/versions/:id/publish", cfg.VersionHandler.PublishDraft)
		}
	}

	return r
}
