package i18n

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formflow-backend/internal/domain"
	domaini18n "github.com/yungbote/formflow-backend/internal/domain/i18n"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

func TestTranslationLookup(t *testing.T) {
	db := testutil.SQLite(t)
	repo := NewTranslationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	field := uuid.New()
	if err := repo.Upsert(dbc, []*types.Translation{
		{EntityID: field, LanguageID: "fr", Key: domaini18n.KeyLabel, Text: "Courriel"},
		{EntityID: field, LanguageID: "de", Key: domaini18n.KeyLabel, Text: "E-Mail"},
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, []*types.Translation{
		{EntityID: field, LanguageID: "fr", Key: domaini18n.KeyLabel, Text: "Adresse courriel"},
	}); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	texts, err := repo.Lookup(dbc, []uuid.UUID{field, uuid.New()}, "fr")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := texts.Get(field, domaini18n.KeyLabel); got != "Adresse courriel" {
		t.Fatalf("Lookup: got %q", got)
	}
	if got := texts.Get(field, domaini18n.KeyPlaceholder); got != "" {
		t.Fatalf("Lookup missing key: got %q", got)
	}

	empty, err := repo.Lookup(dbc, []uuid.UUID{field}, "")
	if err != nil || len(empty) != 0 {
		t.Fatalf("Lookup without language: %v %v", empty, err)
	}
}
