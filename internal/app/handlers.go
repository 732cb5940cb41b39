package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/formflow-backend/internal/http/handlers"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Form    *httpH.FormHandler
	Version *httpH.VersionHandler
	Entry   *httpH.EntryHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Form:    httpH.NewFormHandler(services.Form, services.Version),
		Version: httpH.NewVersionHandler(services.Version),
		Entry:   httpH.NewEntryHandler(services.Entry),
	}
}
