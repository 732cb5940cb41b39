package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/data/repos"
	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/eventbus"
)

func TestEntryLifecycleThroughServices(t *testing.T) {
	h := newHarness(t)
	_, v := h.publish(t, "Signup", emailPayload())
	emailID := v.IDMap.Fields["tmp-email"]
	agreeID := v.IDMap.Fields["tmp-agree"]
	confirmID := mustUUID(t, v.IDMap.Stages["tmp-confirm"])
	finishID := mustUUID(t, v.IDMap.Transitions["tmp-finish"])

	subCtx, cancel := context.WithCancel(h.ctx)
	defer cancel()
	events := make(chan eventbus.Event, 4)
	if err := h.bus.Subscribe(subCtx, "", func(ev eventbus.Event) { events <- ev }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	failed, err := h.entries.SubmitInitial(h.ctx, SubmitInitialInput{
		VersionID: v.Version.ID,
		Values:    conditions.Values{},
	}, nil)
	if err != nil {
		t.Fatalf("SubmitInitial(empty): %v", err)
	}
	if failed.Status != aggregates.SubmissionValidationFailed || len(failed.Errors) == 0 || failed.PublicIdentifier != "" {
		t.Fatalf("empty submission=%+v", failed)
	}

	in := SubmitInitialInput{
		VersionID:      v.Version.ID,
		Values:         conditions.Values{emailID: "Alice@Example.com"},
		IdempotencyKey: "signup-1",
	}
	first, err := h.entries.SubmitInitial(h.ctx, in, nil)
	if err != nil {
		t.Fatalf("SubmitInitial: %v", err)
	}
	if first.Status != aggregates.SubmissionAdvanced || first.Entry == nil {
		t.Fatalf("submission=%+v", first)
	}
	if first.Entry.CurrentStageID != confirmID || first.Entry.CurrentStage == nil || first.Entry.CurrentStage.Name != "Confirm" {
		t.Fatalf("entry=%+v", first.Entry)
	}
	if len(first.Actions) != 2 {
		t.Fatalf("actions=%+v", first.Actions)
	}
	for _, a := range first.Actions {
		if !a.OK {
			t.Fatalf("action %s failed: %s", a.Action, a.Message)
		}
	}
	if first.Actions[0].Action != ActionPublishEvent || first.Actions[1].Action != ActionLog {
		t.Fatalf("actions out of order: %+v", first.Actions)
	}
	select {
	case ev := <-events:
		if ev.Name != "intake.received" || ev.Data["current_stage_id"] != confirmID.String() {
			t.Fatalf("event=%+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for intake event")
	}

	replay, err := h.entries.SubmitInitial(h.ctx, in, nil)
	if err != nil {
		t.Fatalf("SubmitInitial replay: %v", err)
	}
	if replay.PublicIdentifier != first.PublicIdentifier {
		t.Fatalf("replay created a new entry: %s vs %s", replay.PublicIdentifier, first.PublicIdentifier)
	}
	count, err := h.entryRepo.CountByVersion(dbctx.Context{Ctx: h.ctx}, v.Version.ID)
	if err != nil || count != 1 {
		t.Fatalf("entries=%d err=%v want 1", count, err)
	}

	publicID := first.PublicIdentifier
	if _, err := h.entries.GetEntry(h.ctx, publicID, nil, ""); !domainagg.IsCode(err, domainagg.CodeAccessDenied) {
		t.Fatalf("guest GetEntry err=%v want access_denied", err)
	}
	bob := h.caller(t, "bob@example.com")
	if _, err := h.entries.GetEntry(h.ctx, publicID, bob, ""); !domainagg.IsCode(err, domainagg.CodeAccessDenied) {
		t.Fatalf("bob GetEntry err=%v want access_denied", err)
	}
	alice := h.caller(t, "alice@example.com")
	view, err := h.entries.GetEntry(h.ctx, publicID, alice, "")
	if err != nil {
		t.Fatalf("alice GetEntry: %v", err)
	}
	if view.Values[emailID] != "Alice@Example.com" || view.IsComplete {
		t.Fatalf("entry view=%+v", view)
	}

	if _, err := h.entries.SubmitLaterStage(h.ctx, SubmitLaterStageInput{
		PublicIdentifier: publicID,
		Values:           conditions.Values{agreeID: true},
		TransitionID:     &finishID,
	}, bob); !domainagg.IsCode(err, domainagg.CodeAccessDenied) {
		t.Fatalf("bob submit err=%v want access_denied", err)
	}
	done, err := h.entries.SubmitLaterStage(h.ctx, SubmitLaterStageInput{
		PublicIdentifier: publicID,
		Values:           conditions.Values{agreeID: true},
		TransitionID:     &finishID,
	}, alice)
	if err != nil {
		t.Fatalf("SubmitLaterStage: %v", err)
	}
	if done.Status != aggregates.SubmissionCompleted || !done.Entry.IsComplete || done.Entry.CompletedAt == nil {
		t.Fatalf("completion=%+v", done)
	}
	if done.Entry.Values[emailID] != "Alice@Example.com" || done.Entry.Values[agreeID] != true {
		t.Fatalf("values=%v", done.Entry.Values)
	}

	_, err = h.entries.SubmitLaterStage(h.ctx, SubmitLaterStageInput{
		PublicIdentifier: publicID,
		Values:           conditions.Values{agreeID: false},
		TransitionID:     &finishID,
	}, alice)
	if !domainagg.IsCode(err, domainagg.CodeInvalidState) {
		t.Fatalf("submit to complete entry err=%v want invalid_state", err)
	}
}

func TestSubmitLaterStageUnknownEntry(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	_, err := h.entries.SubmitLaterStage(h.ctx, SubmitLaterStageInput{PublicIdentifier: "missing", TransitionID: &id}, nil)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("err=%v want not_found", err)
	}
	if _, err := h.entries.GetEntry(h.ctx, "missing", nil, ""); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("GetEntry err=%v want not_found", err)
	}
	if _, err := h.entries.GetEntry(h.ctx, " ", nil, ""); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("GetEntry blank err=%v want validation", err)
	}
}

func TestValidationFailureReleasesIdempotencyKey(t *testing.T) {
	h := newHarness(t)
	_, v := h.publish(t, "Retry", emailPayload())
	emailID := v.IDMap.Fields["tmp-email"]

	bad := SubmitInitialInput{VersionID: v.Version.ID, Values: conditions.Values{emailID: "not-an-email"}, IdempotencyKey: "k"}
	res, err := h.entries.SubmitInitial(h.ctx, bad, nil)
	if err != nil {
		t.Fatalf("SubmitInitial(bad): %v", err)
	}
	if res.Status != aggregates.SubmissionValidationFailed {
		t.Fatalf("status=%s want validation_failed", res.Status)
	}

	good := bad
	good.Values = conditions.Values{emailID: "carol@example.com"}
	res, err = h.entries.SubmitInitial(h.ctx, good, nil)
	if err != nil {
		t.Fatalf("SubmitInitial(good): %v", err)
	}
	if res.Status != aggregates.SubmissionAdvanced || res.PublicIdentifier == "" {
		t.Fatalf("retry with the same key was not processed: %+v", res)
	}
}

type brokenTranslations struct{ repos.TranslationRepo }

func (brokenTranslations) Lookup(dbctx.Context, []uuid.UUID, string) (repos.Texts, error) {
	return nil, errors.New("translation store unavailable")
}

func TestSubmitRendersWithoutTranslationsOnLookupFailure(t *testing.T) {
	h := newHarness(t)
	_, v := h.publish(t, "Signup", emailPayload())
	emailID := v.IDMap.Fields["tmp-email"]

	deps := h.entryDeps
	deps.Translations = brokenTranslations{}
	svc := NewEntryService(deps)

	in := SubmitInitialInput{
		VersionID:      v.Version.ID,
		Values:         conditions.Values{emailID: "alice@example.com"},
		IdempotencyKey: "signup-fr",
		LanguageID:     "fr",
	}
	first, err := svc.SubmitInitial(h.ctx, in, nil)
	if err != nil {
		t.Fatalf("SubmitInitial: %v", err)
	}
	if first.Status != aggregates.SubmissionAdvanced || first.Entry == nil || first.Entry.CurrentStage == nil {
		t.Fatalf("submission=%+v", first)
	}
	if first.Entry.CurrentStage.Name != "Confirm" {
		t.Fatalf("stage name=%q want untranslated Confirm", first.Entry.CurrentStage.Name)
	}

	replay, err := svc.SubmitInitial(h.ctx, in, nil)
	if err != nil {
		t.Fatalf("SubmitInitial replay: %v", err)
	}
	if replay.PublicIdentifier != first.PublicIdentifier {
		t.Fatalf("replay created a new entry: %s vs %s", replay.PublicIdentifier, first.PublicIdentifier)
	}
	count, err := h.entryRepo.CountByVersion(dbctx.Context{Ctx: h.ctx}, v.Version.ID)
	if err != nil || count != 1 {
		t.Fatalf("entries=%d err=%v want 1", count, err)
	}
}
