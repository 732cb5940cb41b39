package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/formflow-backend/internal/data/repos/testutil"
	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

func TestLoadGrantsMergesDirectAndRolePermissions(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	repo := NewIdentityRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	u, err := repo.CreateUser(dbc, &types.User{Email: " ops@example.com "})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	role := testutil.SeedRole(t, ctx, db, "reviewer")
	extra := &types.Permission{ID: uuid.New(), Key: "entries.read"}
	if err := db.Create(extra).Error; err != nil {
		t.Fatalf("seed permission: %v", err)
	}
	manage := testutil.PermissionID(types.PermissionFormsManage)

	if err := repo.AssignRole(dbc, u.ID, role.ID); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if err := repo.GrantRolePermission(dbc, role.ID, manage); err != nil {
		t.Fatalf("GrantRolePermission: %v", err)
	}
	if err := repo.GrantPermission(dbc, u.ID, extra.ID); err != nil {
		t.Fatalf("GrantPermission: %v", err)
	}
	if err := repo.GrantPermission(dbc, u.ID, manage); err != nil {
		t.Fatalf("GrantPermission: %v", err)
	}

	g, err := repo.LoadGrants(dbc, u.ID)
	if err != nil {
		t.Fatalf("LoadGrants: %v", err)
	}
	if g.User.Email != "ops@example.com" {
		t.Fatalf("email not trimmed: %q", g.User.Email)
	}
	if len(g.RoleIDs) != 1 || g.RoleIDs[0] != role.ID {
		t.Fatalf("RoleIDs: %v", g.RoleIDs)
	}
	if len(g.PermissionIDs) != 2 {
		t.Fatalf("PermissionIDs: expected 2 distinct, got %v", g.PermissionIDs)
	}
	if len(g.PermissionKeys) != 2 || g.PermissionKeys[0] != "entries.read" || g.PermissionKeys[1] != types.PermissionFormsManage {
		t.Fatalf("PermissionKeys: %v", g.PermissionKeys)
	}

	none, err := repo.LoadGrants(dbc, uuid.New())
	if err != nil || none != nil {
		t.Fatalf("LoadGrants unknown user: got=%+v err=%v", none, err)
	}
}
