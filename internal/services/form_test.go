package services

import (
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/access"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
)

func TestCreateFormRequiresName(t *testing.T) {
	h := newHarness(t)
	if _, err := h.forms.CreateForm(h.ctx, "   ", "x", nil); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("err=%v want validation", err)
	}
	owner := h.manager(t)
	f, err := h.forms.CreateForm(h.ctx, " Intake ", " hr ", owner)
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if f.Name != "Intake" || f.Category != "hr" {
		t.Fatalf("form not trimmed: %+v", f)
	}
	if f.CreatedByUserID == nil || *f.CreatedByUserID != owner.UserID {
		t.Fatalf("created_by=%v want %s", f.CreatedByUserID, owner.UserID)
	}
}

func TestCreateFormWithoutCaller(t *testing.T) {
	h := newHarness(t)
	f, err := h.forms.CreateForm(h.ctx, "Intake", "", nil)
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if f.CreatedByUserID != nil {
		t.Fatalf("created_by=%v want nil", f.CreatedByUserID)
	}
	guest := &access.Caller{}
	if _, err := h.forms.CreateForm(h.ctx, "Walk-in", "", guest); err != nil {
		t.Fatalf("CreateForm(guest): %v", err)
	}
}

func TestListAccessibleForms(t *testing.T) {
	h := newHarness(t)

	public, _ := h.publish(t, "A public", emailPayload())

	members := emailPayload()
	members.Stages[0].AccessRule = &graph.AccessRulePayload{AllowAuthenticatedUsers: true}
	membersOnly, _ := h.publish(t, "B members", members)

	// Only a draft: never listed.
	draft, err := h.forms.CreateForm(h.ctx, "C draft", "", nil)
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if _, err := h.versions.CreateVersion(h.ctx, draft.ID, false); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	ids := func(list []FormSummary) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(list))
		for _, s := range list {
			out = append(out, s.ID)
		}
		return out
	}

	guest, err := h.forms.ListAccessibleForms(h.ctx, nil)
	if err != nil {
		t.Fatalf("ListAccessibleForms(guest): %v", err)
	}
	if got := ids(guest); len(got) != 1 || got[0] != public.ID {
		t.Fatalf("guest sees %v want [%s]", got, public.ID)
	}
	if guest[0].VersionNumber != 1 || guest[0].PublishedAt == nil {
		t.Fatalf("summary=%+v", guest[0])
	}

	member := h.caller(t, "member@example.com")
	signedIn, err := h.forms.ListAccessibleForms(h.ctx, member)
	if err != nil {
		t.Fatalf("ListAccessibleForms(member): %v", err)
	}
	if got := ids(signedIn); len(got) != 2 || got[0] != public.ID || got[1] != membersOnly.ID {
		t.Fatalf("member sees %v want [%s %s]", got, public.ID, membersOnly.ID)
	}
}
