package app

import (
	httpMW "github.com/yungbote/formflow-backend/internal/http/middleware"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type Middleware struct {
	Auth   *httpMW.AuthMiddleware
	Submit *httpMW.SubmitLimiter
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:   httpMW.NewAuthMiddleware(log, services.Auth),
		Submit: httpMW.NewSubmitLimiter(cfg.SubmitRatePerMinute),
	}
}
