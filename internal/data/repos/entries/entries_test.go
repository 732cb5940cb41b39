package entries

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/formflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

func TestEntryRepo(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	entries := NewEntryRepo(db, log)
	values := NewEntryValueRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx}

	form := testutil.SeedForm(t, ctx, db, "F")
	v := testutil.SeedVersion(t, ctx, db, form.ID, 1, types.VersionStatusPublished)

	created, err := entries.Create(dbc, []*types.Entry{{
		FormVersionID:    v.ID,
		CurrentStageID:   uuid.New(),
		PublicIdentifier: "abc",
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := entries.Create(dbc, []*types.Entry{{FormVersionID: v.ID, CurrentStageID: uuid.New()}}); err == nil {
		t.Fatalf("Create without public identifier: expected error")
	}

	got, err := entries.GetByPublicIdentifier(dbc, "abc")
	if err != nil || got == nil || got.ID != created[0].ID {
		t.Fatalf("GetByPublicIdentifier: got=%+v err=%v", got, err)
	}
	none, err := entries.GetByPublicIdentifier(dbc, "nope")
	if err != nil || none != nil {
		t.Fatalf("GetByPublicIdentifier missing: got=%+v err=%v", none, err)
	}

	fieldID := uuid.New()
	if err := values.Upsert(dbc, []*types.EntryValue{{EntryID: got.ID, FieldID: fieldID, Value: datatypes.JSON(`"a"`)}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := values.Upsert(dbc, []*types.EntryValue{{EntryID: got.ID, FieldID: fieldID, Value: datatypes.JSON(`"b"`)}}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	rows, err := values.ListByEntry(dbc, got.ID)
	if err != nil {
		t.Fatalf("ListByEntry: %v", err)
	}
	if len(rows) != 1 || string(rows[0].Value) != `"b"` {
		t.Fatalf("ListByEntry: expected single replaced value, got %+v", rows)
	}

	n, err := entries.CountByVersion(dbc, v.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountByVersion: n=%d err=%v", n, err)
	}
}
