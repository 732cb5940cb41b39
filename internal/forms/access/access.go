package access

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/formflow-backend/internal/domain/catalog"
	"github.com/yungbote/formflow-backend/internal/domain/forms"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/forms/graph"
)

// Caller is an authenticated user with resolved roles and permissions.
// A nil *Caller is a guest.
type Caller struct {
	UserID        uuid.UUID
	Email         string
	RoleIDs       []uuid.UUID
	PermissionIDs []uuid.UUID
	// PermissionKeys are the catalog keys of PermissionIDs.
	PermissionKeys []string
}

// HasPermission checks a permission by key.
func (c *Caller) HasPermission(key string) bool {
	if c == nil {
		return false
	}
	for _, k := range c.PermissionKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Target is a stage together with what the check needs to know about it.
type Target struct {
	Stage *forms.Stage
	Rule  *forms.StageAccessRule
	// EmailFieldIsEmail reports whether Rule.EmailFieldID names an email-typed field.
	EmailFieldIsEmail bool
}

// TargetFor builds the access target for a stage of g.
func TargetFor(g *graph.Graph, stageID uuid.UUID) Target {
	t := Target{Stage: g.Stage(stageID), Rule: g.AccessRuleOf(stageID)}
	if t.Rule != nil && t.Rule.EmailFieldID != nil {
		t.EmailFieldIsEmail = g.FieldTypeKey(*t.Rule.EmailFieldID) == catalog.FieldTypeEmail
	}
	return t
}

// EntrySnapshot is the stored state an email match reads from.
type EntrySnapshot struct {
	Values conditions.Values
}

// IsPublic reports an initial stage whose rule binds nobody and does not require
// authentication.
func IsPublic(t Target) bool {
	if t.Stage == nil || t.Rule == nil || !t.Stage.IsInitial {
		return false
	}
	r := t.Rule
	return !r.AllowAuthenticatedUsers &&
		r.EmailFieldID == nil &&
		len(graph.DecodeIDList(r.AllowedUsers)) == 0 &&
		len(graph.DecodeIDList(r.AllowedRoles)) == 0 &&
		len(graph.DecodeIDList(r.AllowedPermissions)) == 0
}

// CanAccess decides whether caller may act on the target stage. Stages without
// an access rule deny everyone. entry is only consulted for email matches.
func CanAccess(t Target, caller *Caller, entry *EntrySnapshot) bool {
	if t.Stage == nil || t.Rule == nil {
		return false
	}
	if IsPublic(t) {
		return true
	}
	if caller == nil || caller.UserID == uuid.Nil {
		return false
	}
	r := t.Rule
	if r.AllowAuthenticatedUsers {
		return true
	}
	if containsID(graph.DecodeIDList(r.AllowedUsers), caller.UserID) {
		return true
	}
	allowedRoles := graph.DecodeIDList(r.AllowedRoles)
	for _, id := range caller.RoleIDs {
		if containsID(allowedRoles, id) {
			return true
		}
	}
	allowedPerms := graph.DecodeIDList(r.AllowedPermissions)
	for _, id := range caller.PermissionIDs {
		if containsID(allowedPerms, id) {
			return true
		}
	}
	return emailMatches(t, caller, entry)
}

func emailMatches(t Target, caller *Caller, entry *EntrySnapshot) bool {
	if entry == nil || t.Rule.EmailFieldID == nil || !t.EmailFieldIsEmail {
		return false
	}
	want := strings.TrimSpace(caller.Email)
	if want == "" {
		return false
	}
	stored, ok := entry.Values.Lookup(t.Rule.EmailFieldID.String())
	if !ok {
		return false
	}
	got, ok := stored.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(got), want)
}

func containsID(ids []string, id uuid.UUID) bool {
	want := id.String()
	for _, raw := range ids {
		if strings.EqualFold(strings.TrimSpace(raw), want) {
			return true
		}
	}
	return false
}
