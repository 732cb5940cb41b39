package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/observability"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
	"github.com/yungbote/formflow-backend/internal/services"
)

type Services struct {
	Catalog services.CatalogService
	Auth    services.AuthService
	Form    services.FormService
	Version services.VersionService
	Entry   services.EntryService
	Actions services.ActionExecutor
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	catalog := services.NewCatalogService(log, reposet.Catalog)
	snap, err := catalog.Snapshot(ctx)
	if err != nil {
		return Services{}, fmt.Errorf("load catalog: %w", err)
	}

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}
	drafts := aggregates.NewDraftStructureAggregate(aggregates.DraftStructureAggregateDeps{
		Base:      base,
		Forms:     reposet.Form,
		Versions:  reposet.FormVersion,
		Structure: reposet.Structure,
		Catalog:   snap,
		Props:     snap,
		Demotion:  cfg.PublishDemotion,
	})
	workflow := aggregates.NewEntryWorkflowAggregate(aggregates.EntryWorkflowAggregateDeps{
		Base:      base,
		Versions:  reposet.FormVersion,
		Structure: reposet.Structure,
		Entries:   reposet.Entry,
		Values:    reposet.EntryValue,
		Keys:      snap,
	})

	actions := services.NewActionExecutor(services.ActionExecutorDeps{
		Log:      log,
		Metrics:  metrics,
		Timeout:  cfg.ActionTimeout,
		Mail:     clients.Mail,
		Events:   clients.Events,
		Webhooks: clients.Webhooks,
	})

	return Services{
		Catalog: catalog,
		Auth:    services.NewAuthService(log, reposet.Identity, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Form:    services.NewFormService(log, reposet.Form, reposet.FormVersion, reposet.Structure, catalog),
		Version: services.NewVersionService(log, drafts, reposet.FormVersion, reposet.Structure, reposet.Translation, catalog),
		Entry: services.NewEntryService(services.EntryServiceDeps{
			Log:          log,
			Workflow:     workflow,
			Versions:     reposet.FormVersion,
			Structure:    reposet.Structure,
			Entries:      reposet.Entry,
			Values:       reposet.EntryValue,
			Translations: reposet.Translation,
			Catalog:      catalog,
			Actions:      actions,
			Idempotency:  clients.Idempotency,
			Metrics:      metrics,
		}),
		Actions: actions,
	}, nil
}
