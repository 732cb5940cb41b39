package aggregates

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/formflow-backend/internal/data/repos"
	types "github.com/yungbote/formflow-backend/internal/domain"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/forms/validation"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

// Submission outcomes.
const (
	SubmissionAdvanced         = "advanced"
	SubmissionCompleted        = "completed"
	SubmissionValidationFailed = "validation_failed"
)

// EntryWorkflowAggregate owns entry creation and stage transitions.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeInvalidState, CodeAccessDenied, CodeConflict,
// CodeInvariantViolation, CodeRetryable, CodeInternal. Field rule violations are
// reported in the result, not as errors.
type EntryWorkflowAggregate interface {
	domainagg.Aggregate

	// StartEntry validates the initial stage of a published version, creates the
	// entry and fires the chosen transition.
	StartEntry(ctx context.Context, in StartEntryInput) (SubmissionResult, error)

	// AdvanceEntry validates the entry's current stage and fires the chosen transition.
	AdvanceEntry(ctx context.Context, in AdvanceEntryInput) (SubmissionResult, error)
}

type StartEntryInput struct {
	VersionID    uuid.UUID
	Values       conditions.Values
	TransitionID *uuid.UUID
	Caller       *access.Caller
}

type AdvanceEntryInput struct {
	PublicIdentifier string
	Values           conditions.Values
	TransitionID     *uuid.UUID
	Caller           *access.Caller
}

// SubmissionResult carries what the caller needs after commit: the entry, the fired
// transition with its actions, and the merged values the actions may read.
type SubmissionResult struct {
	Status      string
	Entry       *types.Entry
	Graph       *graph.Graph
	FromStageID uuid.UUID
	Transition  *types.StageTransition
	Actions     []*types.StageTransitionAction
	Values      conditions.Values
	Errors      []validation.FieldError
}

func (r SubmissionResult) Failed() bool { return r.Status == SubmissionValidationFailed }

type EntryWorkflowAggregateDeps struct {
	Base BaseDeps

	Versions  repos.FormVersionRepo
	Structure repos.StructureRepo
	Entries   repos.EntryRepo
	Values    repos.EntryValueRepo

	Keys        graph.CatalogKeys
	Validator   *validation.Validator
	NewID       func() uuid.UUID
	NewPublicID func() (string, error)
}

type entryWorkflowAggregate struct {
	deps EntryWorkflowAggregateDeps
}

func NewEntryWorkflowAggregate(deps EntryWorkflowAggregateDeps) EntryWorkflowAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	if deps.NewPublicID == nil {
		deps.NewPublicID = NewPublicIdentifier
	}
	if deps.Validator == nil {
		deps.Validator = validation.New(deps.Base.Log)
	}
	return &entryWorkflowAggregate{deps: deps}
}

func (a *entryWorkflowAggregate) Contract() domainagg.Contract {
	return domainagg.EntryWorkflowAggregateContract
}

func (a *entryWorkflowAggregate) ready(op string) error {
	if a.deps.Versions == nil || a.deps.Structure == nil || a.deps.Entries == nil || a.deps.Values == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "entry workflow aggregate repos not configured", nil)
	}
	return nil
}

func (a *entryWorkflowAggregate) StartEntry(ctx context.Context, in StartEntryInput) (SubmissionResult, error) {
	const op = "Entries.EntryWorkflow.StartEntry"
	var out SubmissionResult
	if in.VersionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing version_id", nil)
	}
	if err := a.ready(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		version, err := a.deps.Versions.GetByID(dbc, in.VersionID)
		if err != nil {
			return err
		}
		if version == nil {
			return domainagg.NotFound(op, fmt.Sprintf("form version not found: %s", in.VersionID))
		}
		if version.Status != types.VersionStatusPublished {
			return domainagg.InvalidState(op, "entries can only be started on a published version")
		}
		g, err := a.loadGraph(dbc, version)
		if err != nil {
			return err
		}
		initial := g.InitialStage()
		if initial == nil {
			return InvariantError("published version has no initial stage")
		}
		if !access.CanAccess(access.TargetFor(g, initial.ID), in.Caller, nil) {
			return domainagg.AccessDenied(op, "caller may not submit the initial stage")
		}

		d, err := a.decide(op, g, initial.ID, conditions.Values{}, in.Values, in.TransitionID)
		if err != nil {
			return err
		}
		out = d.result(g, initial.ID)
		if d.failed() {
			return nil
		}

		publicID, err := a.deps.NewPublicID()
		if err != nil {
			return err
		}
		entry := &types.Entry{
			ID:               a.deps.NewID(),
			FormVersionID:    version.ID,
			CurrentStageID:   initial.ID,
			PublicIdentifier: publicID,
		}
		if in.Caller != nil && in.Caller.UserID != uuid.Nil {
			uid := in.Caller.UserID
			entry.CreatedByUserID = &uid
		}
		applyTransition(entry, d.transition, time.Now().UTC())
		if _, err := a.deps.Entries.Create(dbc, []*types.Entry{entry}); err != nil {
			return err
		}
		if err := a.deps.Values.Upsert(dbc, valueRows(entry.ID, d.validated.Accepted)); err != nil {
			return err
		}
		out.Entry = entry
		return nil
	})
	return out, err
}

func (a *entryWorkflowAggregate) AdvanceEntry(ctx context.Context, in AdvanceEntryInput) (SubmissionResult, error) {
	const op = "Entries.EntryWorkflow.AdvanceEntry"
	var out SubmissionResult
	publicID := strings.TrimSpace(in.PublicIdentifier)
	if publicID == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing public identifier", nil)
	}
	if err := a.ready(op); err != nil {
		return out, err
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		entry, err := a.deps.Entries.LockByPublicIdentifier(dbc, publicID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domainagg.NotFound(op, "entry not found")
		}
		if entry.IsComplete {
			return domainagg.InvalidState(op, "entry is already complete")
		}
		version, err := a.deps.Versions.GetByID(dbc, entry.FormVersionID)
		if err != nil {
			return err
		}
		if version == nil {
			return domainagg.NotFound(op, fmt.Sprintf("form version not found: %s", entry.FormVersionID))
		}
		g, err := a.loadGraph(dbc, version)
		if err != nil {
			return err
		}
		if g.Stage(entry.CurrentStageID) == nil {
			return domainagg.NotFound(op, fmt.Sprintf("current stage not found: %s", entry.CurrentStageID))
		}

		rows, err := a.deps.Values.ListByEntry(dbc, entry.ID)
		if err != nil {
			return err
		}
		stored := DecodeValues(rows)
		target := access.TargetFor(g, entry.CurrentStageID)
		if !access.CanAccess(target, in.Caller, &access.EntrySnapshot{Values: stored}) {
			return domainagg.AccessDenied(op, "caller may not submit this stage")
		}
		if in.TransitionID != nil {
			if err := requireOrigin(op, g, *in.TransitionID, entry.CurrentStageID); err != nil {
				return err
			}
		}

		d, err := a.decide(op, g, entry.CurrentStageID, stored, in.Values, in.TransitionID)
		if err != nil {
			return err
		}
		out = d.result(g, entry.CurrentStageID)
		out.Entry = entry
		if d.failed() {
			return nil
		}

		if err := a.deps.Values.Upsert(dbc, valueRows(entry.ID, d.validated.Accepted)); err != nil {
			return err
		}
		now := time.Now().UTC()
		updates := map[string]any{}
		if d.transition.ToComplete {
			updates["is_complete"] = true
			updates["completed_at"] = now
		} else {
			updates["current_stage_id"] = *d.transition.ToStageID
		}
		ok, err := a.deps.Base.CASGuard.UpdateByRevision(dbc, "entry", entry.ID, entry.Revision, updates)
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "entry changed during submission"); err != nil {
			return err
		}
		applyTransition(entry, d.transition, now)
		entry.Revision++
		return nil
	})
	return out, err
}

type decision struct {
	transition *types.StageTransition
	validated  validation.Result
}

func (d decision) failed() bool { return !d.validated.OK() }

func (d decision) result(g *graph.Graph, from uuid.UUID) SubmissionResult {
	res := SubmissionResult{
		Graph:       g,
		FromStageID: from,
		Values:      d.validated.Merged,
		Errors:      d.validated.Errors,
	}
	if d.failed() {
		res.Status = SubmissionValidationFailed
		return res
	}
	res.Transition = d.transition
	res.Actions = g.ActionsOf(d.transition.ID)
	if d.transition.ToComplete {
		res.Status = SubmissionCompleted
	} else {
		res.Status = SubmissionAdvanced
	}
	return res
}

// decide validates the stage submission and picks the transition to fire. Field
// errors win over transition eligibility. An explicit transition must originate
// at stageID and its condition must hold; otherwise the first transition from
// stageID whose condition holds is taken.
func (a *entryWorkflowAggregate) decide(op string, g *graph.Graph, stageID uuid.UUID, stored, submitted conditions.Values, transitionID *uuid.UUID) (decision, error) {
	var d decision
	if transitionID != nil {
		if err := requireOrigin(op, g, *transitionID, stageID); err != nil {
			return d, err
		}
	}
	d.validated = a.deps.Validator.ValidateStage(g, stageID, stored, submitted)
	if d.failed() {
		return d, nil
	}

	if transitionID != nil {
		t := g.Transition(*transitionID)
		if !conditions.Holds(t.Condition, d.validated.Merged) {
			return d, domainagg.InvalidState(op, "transition condition does not hold")
		}
		d.transition = t
	} else {
		for _, t := range g.TransitionsFrom(stageID) {
			if conditions.Holds(t.Condition, d.validated.Merged) {
				d.transition = t
				break
			}
		}
		if d.transition == nil {
			return d, domainagg.InvalidState(op, "no transition from the current stage is eligible")
		}
	}
	if !d.transition.ToComplete && (d.transition.ToStageID == nil || g.Stage(*d.transition.ToStageID) == nil) {
		return d, InvariantError("transition has no target stage")
	}
	return d, nil
}

func requireOrigin(op string, g *graph.Graph, transitionID, stageID uuid.UUID) error {
	t := g.Transition(transitionID)
	if t == nil {
		return domainagg.NotFound(op, fmt.Sprintf("transition not found: %s", transitionID))
	}
	if t.FromStageID == nil || *t.FromStageID != stageID {
		return domainagg.InvalidState(op, "transition does not originate at the current stage")
	}
	return nil
}

func (a *entryWorkflowAggregate) loadGraph(dbc dbctx.Context, version *types.FormVersion) (*graph.Graph, error) {
	g, err := a.deps.Structure.LoadGraph(dbc, version)
	if err != nil {
		return nil, err
	}
	g.Catalog = a.deps.Keys
	return g, nil
}

func applyTransition(entry *types.Entry, t *types.StageTransition, at time.Time) {
	if t.ToComplete {
		entry.IsComplete = true
		entry.CompletedAt = &at
		return
	}
	entry.CurrentStageID = *t.ToStageID
}

func valueRows(entryID uuid.UUID, values conditions.Values) []*types.EntryValue {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*types.EntryValue, 0, len(keys))
	for _, k := range keys {
		fieldID, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		raw, err := json.Marshal(values[k])
		if err != nil {
			continue
		}
		out = append(out, &types.EntryValue{EntryID: entryID, FieldID: fieldID, Value: datatypes.JSON(raw)})
	}
	return out
}

// DecodeValues turns stored rows into a field-id keyed value map.
func DecodeValues(rows []*types.EntryValue) conditions.Values {
	out := conditions.Values{}
	for _, row := range rows {
		var v any
		if len(row.Value) > 0 {
			if err := json.Unmarshal(row.Value, &v); err != nil {
				continue
			}
		}
		out[row.FieldID.String()] = v
	}
	return out
}

// NewPublicIdentifier returns a URL-safe random token for resuming an entry.
func NewPublicIdentifier() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", RetryableError("public identifier entropy unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
