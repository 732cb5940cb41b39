package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/data/repos"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/observability"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/idempotency"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

const (
	submissionInitial = "initial"
	submissionLater   = "later"
)

type SubmitInitialInput struct {
	VersionID    uuid.UUID
	Values       conditions.Values
	TransitionID *uuid.UUID
	// IdempotencyKey makes repeated submissions return the first result.
	IdempotencyKey string
	LanguageID     string
}

type SubmitLaterStageInput struct {
	PublicIdentifier string
	Values           conditions.Values
	TransitionID     *uuid.UUID
	IdempotencyKey   string
	LanguageID       string
}

type EntryService interface {
	SubmitInitial(ctx context.Context, in SubmitInitialInput, caller *access.Caller) (*SubmissionView, error)
	// GetEntry fails with access_denied when caller may not act on the entry's
	// current stage.
	GetEntry(ctx context.Context, publicIdentifier string, caller *access.Caller, languageID string) (*EntryView, error)
	SubmitLaterStage(ctx context.Context, in SubmitLaterStageInput, caller *access.Caller) (*SubmissionView, error)
}

type EntryServiceDeps struct {
	Log      *logger.Logger
	Workflow aggregates.EntryWorkflowAggregate

	Versions     repos.FormVersionRepo
	Structure    repos.StructureRepo
	Entries      repos.EntryRepo
	Values       repos.EntryValueRepo
	Translations repos.TranslationRepo
	Catalog      CatalogService

	Actions ActionExecutor
	// Idempotency is optional; without it Idempotency-Key is ignored.
	Idempotency idempotency.Store
	Metrics     *observability.Metrics
}

type entryService struct {
	log  *logger.Logger
	deps EntryServiceDeps
}

func NewEntryService(deps EntryServiceDeps) EntryService {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Actions == nil {
		deps.Actions = NewActionExecutor(ActionExecutorDeps{Log: log, Metrics: deps.Metrics})
	}
	return &entryService{log: log.With("service", "EntryService"), deps: deps}
}

func (s *entryService) SubmitInitial(ctx context.Context, in SubmitInitialInput, caller *access.Caller) (*SubmissionView, error) {
	scope := "initial:" + in.VersionID.String()
	return s.idempotent(ctx, scope, in.IdempotencyKey, caller, func() (*SubmissionView, error) {
		res, err := s.deps.Workflow.StartEntry(ctx, aggregates.StartEntryInput{
			VersionID:    in.VersionID,
			Values:       in.Values,
			TransitionID: in.TransitionID,
			Caller:       caller,
		})
		return s.finish(ctx, submissionInitial, res, err, caller, in.LanguageID)
	})
}

func (s *entryService) SubmitLaterStage(ctx context.Context, in SubmitLaterStageInput, caller *access.Caller) (*SubmissionView, error) {
	scope := "later:" + strings.TrimSpace(in.PublicIdentifier)
	return s.idempotent(ctx, scope, in.IdempotencyKey, caller, func() (*SubmissionView, error) {
		res, err := s.deps.Workflow.AdvanceEntry(ctx, aggregates.AdvanceEntryInput{
			PublicIdentifier: in.PublicIdentifier,
			Values:           in.Values,
			TransitionID:     in.TransitionID,
			Caller:           caller,
		})
		return s.finish(ctx, submissionLater, res, err, caller, in.LanguageID)
	})
}

// finish runs the fired transition's actions and renders the result.
func (s *entryService) finish(ctx context.Context, kind string, res aggregates.SubmissionResult, err error, caller *access.Caller, languageID string) (*SubmissionView, error) {
	if err != nil {
		s.deps.Metrics.IncSubmission(kind, string(domainagg.CodeOf(err)))
		return nil, err
	}
	s.deps.Metrics.IncSubmission(kind, res.Status)

	view := &SubmissionView{
		Status:      res.Status,
		FromStageID: res.FromStageID,
		Errors:      res.Errors,
	}
	if res.Entry != nil {
		view.PublicIdentifier = res.Entry.PublicIdentifier
	}
	if res.Failed() {
		return view, nil
	}
	view.TransitionID = &res.Transition.ID

	view.Actions = s.deps.Actions.Execute(ctx, ActionContext{
		Entry:       res.Entry,
		Graph:       res.Graph,
		FromStageID: res.FromStageID,
		Transition:  res.Transition,
		Values:      res.Values,
		Caller:      caller,
	}, res.Actions)

	// The transition is committed; a lookup failure only drops translations.
	texts, err := s.texts(ctx, res.Graph.EntityIDs(), languageID)
	if err != nil {
		s.log.Warn("render entry without translations", "language_id", languageID, "error", err)
		texts = nil
	}
	view.Entry = buildEntryView(res.Entry, res.Graph, res.Values, texts)
	s.log.Info("entry transitioned",
		"kind", kind,
		"status", res.Status,
		"form_version_id", res.Entry.FormVersionID,
		"transition_id", res.Transition.ID,
		"public_identifier", res.Entry.PublicIdentifier,
		"actions", len(view.Actions),
	)
	return view, nil
}

func (s *entryService) GetEntry(ctx context.Context, publicIdentifier string, caller *access.Caller, languageID string) (*EntryView, error) {
	const op = "Entries.GetEntry"
	publicIdentifier = strings.TrimSpace(publicIdentifier)
	if publicIdentifier == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing public identifier", nil)
	}
	snap, err := s.deps.Catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	entry, err := s.deps.Entries.GetByPublicIdentifier(dbc, publicIdentifier)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if entry == nil {
		return nil, domainagg.NotFound(op, "entry not found")
	}
	version, err := s.deps.Versions.GetByID(dbc, entry.FormVersionID)
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	if version == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("form version not found: %s", entry.FormVersionID))
	}
	g, err := s.deps.Structure.LoadGraph(dbc, version)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	g.Catalog = snap
	if g.Stage(entry.CurrentStageID) == nil {
		return nil, domainagg.NotFound(op, fmt.Sprintf("current stage not found: %s", entry.CurrentStageID))
	}

	rows, err := s.deps.Values.ListByEntry(dbc, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("list values: %w", err)
	}
	values := aggregates.DecodeValues(rows)
	if !access.CanAccess(access.TargetFor(g, entry.CurrentStageID), caller, &access.EntrySnapshot{Values: values}) {
		return nil, domainagg.AccessDenied(op, "caller may not access this entry")
	}

	texts, err := s.texts(ctx, g.EntityIDs(), languageID)
	if err != nil {
		return nil, err
	}
	return buildEntryView(entry, g, values, texts), nil
}

func (s *entryService) texts(ctx context.Context, ids []uuid.UUID, languageID string) (repos.Texts, error) {
	if s.deps.Translations == nil || strings.TrimSpace(languageID) == "" {
		return nil, nil
	}
	texts, err := s.deps.Translations.Lookup(dbctx.Context{Ctx: ctx}, ids, languageID)
	if err != nil {
		return nil, fmt.Errorf("lookup translations: %w", err)
	}
	return texts, nil
}

// idempotent wraps a submission with the idempotency store. Keys are scoped to
// the submission target and caller. Errors and validation failures release the
// claim so a corrected retry with the same key is processed.
func (s *entryService) idempotent(ctx context.Context, scope, key string, caller *access.Caller, fn func() (*SubmissionView, error)) (*SubmissionView, error) {
	key = strings.TrimSpace(key)
	if s.deps.Idempotency == nil || key == "" {
		return fn()
	}
	callerID := uuid.Nil
	if caller != nil {
		callerID = caller.UserID
	}
	full := scope + ":" + callerID.String() + ":" + key

	cached, found, err := s.deps.Idempotency.Begin(ctx, full)
	switch {
	case errors.Is(err, idempotency.ErrInFlight):
		return nil, domainagg.NewError(domainagg.CodeConflict, "Entries.Idempotency", "a request with this idempotency key is in flight", err)
	case err != nil:
		s.log.Warn("idempotency store unavailable, processing without it", "error", err)
		return fn()
	case found:
		var view SubmissionView
		if err := json.Unmarshal(cached, &view); err == nil {
			s.deps.Metrics.IncIdempotentReplay()
			return &view, nil
		}
		s.log.Warn("discarding unreadable idempotent response", "scope", scope)
		_ = s.deps.Idempotency.Release(ctx, full)
		return fn()
	}

	view, err := fn()
	if err != nil || view == nil || view.Status == aggregates.SubmissionValidationFailed {
		if rerr := s.deps.Idempotency.Release(context.WithoutCancel(ctx), full); rerr != nil {
			s.log.Warn("idempotency release failed", "error", rerr)
		}
		return view, err
	}
	raw, merr := json.Marshal(view)
	if merr == nil {
		merr = s.deps.Idempotency.Complete(context.WithoutCancel(ctx), full, raw)
	}
	if merr != nil {
		s.log.Warn("idempotency complete failed", "error", merr)
	}
	return view, nil
}
