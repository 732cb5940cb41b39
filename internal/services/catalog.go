package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	"github.com/yungbote/formflow-backend/internal/forms/catalog"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

// CatalogService serves the field type, input rule and action catalog as one
// compiled snapshot. The snapshot is loaded once and shared until Invalidate.
type CatalogService interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
	Invalidate()
}

type catalogService struct {
	log  *logger.Logger
	repo repos.CatalogRepo

	group singleflight.Group
	mu    sync.RWMutex
	snap  *catalog.Snapshot
}

func NewCatalogService(log *logger.Logger, repo repos.CatalogRepo) CatalogService {
	return &catalogService{
		log:  log.With("service", "CatalogService"),
		repo: repo,
	}
}

func (s *catalogService) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	v, err, _ := s.group.Do("catalog", func() (interface{}, error) {
		s.mu.RLock()
		cached := s.snap
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		loaded, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.snap = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Snapshot), nil
}

func (s *catalogService) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

func (s *catalogService) load(ctx context.Context) (*catalog.Snapshot, error) {
	dbc := dbctx.Context{Ctx: ctx}
	fieldTypes, err := s.repo.ListFieldTypes(dbc)
	if err != nil {
		return nil, fmt.Errorf("list field types: %w", err)
	}
	inputRules, err := s.repo.ListInputRules(dbc)
	if err != nil {
		return nil, fmt.Errorf("list input rules: %w", err)
	}
	actions, err := s.repo.ListActions(dbc)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	snap, err := catalog.NewSnapshot(fieldTypes, inputRules, actions)
	if err != nil {
		return nil, err
	}
	s.log.Debug("catalog loaded",
		"field_types", len(fieldTypes),
		"input_rules", len(inputRules),
		"actions", len(actions),
	)
	return snap, nil
}
