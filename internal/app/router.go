package app

import (
	"github.com/yungbote/formflow-backend/internal/http"
	"github.com/yungbote/formflow-backend/internal/observability"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

const serviceName = "formflow-api"

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthMiddleware: middleware.Auth,
		SubmitLimiter:  middleware.Submit,
		FormHandler:    handlers.Form,
		VersionHandler: handlers.Version,
		EntryHandler:   handlers.Entry,
		HealthHandler:  handlers.Health,
	})
}
