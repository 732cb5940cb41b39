package access

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/formflow-backend/internal/domain/forms"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"gorm.io/datatypes"
)

func ids(list ...uuid.UUID) datatypes.JSON {
	s := make([]string, len(list))
	for i, id := range list {
		s[i] = id.String()
	}
	raw, _ := json.Marshal(s)
	return raw
}

func target(initial bool, rule *forms.StageAccessRule) Target {
	return Target{Stage: &forms.Stage{ID: uuid.New(), IsInitial: initial}, Rule: rule}
}

func TestDefaultDenyWithoutRule(t *testing.T) {
	caller := &Caller{UserID: uuid.New()}
	if CanAccess(target(true, nil), caller, nil) {
		t.Fatalf("stage without rule must deny")
	}
}

func TestPublicInitialStage(t *testing.T) {
	tg := target(true, &forms.StageAccessRule{})
	if !CanAccess(tg, nil, nil) {
		t.Fatalf("public initial stage should admit guests")
	}
	if !CanAccess(tg, &Caller{UserID: uuid.New()}, nil) {
		t.Fatalf("public initial stage should admit users")
	}
	if CanAccess(target(false, &forms.StageAccessRule{}), &Caller{UserID: uuid.New()}, nil) {
		t.Fatalf("empty rule on a later stage is not public")
	}
}

func TestAllowAuthenticatedUsers(t *testing.T) {
	tg := target(true, &forms.StageAccessRule{AllowAuthenticatedUsers: true})
	if CanAccess(tg, nil, nil) {
		t.Fatalf("guest must be denied")
	}
	if !CanAccess(tg, &Caller{UserID: uuid.New()}, nil) {
		t.Fatalf("any authenticated caller must be admitted")
	}
}

func TestUserRolePermissionBindings(t *testing.T) {
	user, role, perm := uuid.New(), uuid.New(), uuid.New()
	tg := target(false, &forms.StageAccessRule{
		AllowedUsers:       ids(user),
		AllowedRoles:       ids(role),
		AllowedPermissions: ids(perm),
	})
	cases := []struct {
		name   string
		caller *Caller
		want   bool
	}{
		{"guest", nil, false},
		{"listed user", &Caller{UserID: user}, true},
		{"role holder", &Caller{UserID: uuid.New(), RoleIDs: []uuid.UUID{uuid.New(), role}}, true},
		{"permission holder", &Caller{UserID: uuid.New(), PermissionIDs: []uuid.UUID{perm}}, true},
		{"stranger", &Caller{UserID: uuid.New(), RoleIDs: []uuid.UUID{uuid.New()}}, false},
	}
	for _, tc := range cases {
		if got := CanAccess(tg, tc.caller, nil); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestEmailMatch(t *testing.T) {
	emailField := uuid.New()
	tg := target(false, &forms.StageAccessRule{EmailFieldID: &emailField})
	tg.EmailFieldIsEmail = true
	entry := &EntrySnapshot{Values: conditions.Values{emailField.String(): " Alice@Example.com "}}

	if !CanAccess(tg, &Caller{UserID: uuid.New(), Email: "alice@example.com"}, entry) {
		t.Fatalf("case-insensitive email should grant")
	}
	if CanAccess(tg, &Caller{UserID: uuid.New(), Email: "bob@example.com"}, entry) {
		t.Fatalf("other email should deny")
	}
	if CanAccess(tg, &Caller{UserID: uuid.New(), Email: "alice@example.com"}, nil) {
		t.Fatalf("email match requires an entry")
	}
	tg.EmailFieldIsEmail = false
	if CanAccess(tg, &Caller{UserID: uuid.New(), Email: "alice@example.com"}, entry) {
		t.Fatalf("email match requires an email-typed field")
	}
}

func TestCallerHasPermission(t *testing.T) {
	c := &Caller{PermissionKeys: []string{"Forms.Manage"}}
	if !c.HasPermission("forms.manage") {
		t.Fatalf("expected permission match")
	}
	var guest *Caller
	if guest.HasPermission("forms.manage") {
		t.Fatalf("guest holds no permissions")
	}
}
