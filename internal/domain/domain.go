package domain

import (
	"github.com/yungbote/formflow-backend/internal/domain/catalog"
	"github.com/yungbote/formflow-backend/internal/domain/entries"
	"github.com/yungbote/formflow-backend/internal/domain/forms"
	"github.com/yungbote/formflow-backend/internal/domain/i18n"
	"github.com/yungbote/formflow-backend/internal/domain/identity"
)

const (
	VersionStatusDraft     = forms.VersionStatusDraft
	VersionStatusPublished = forms.VersionStatusPublished
)

type Form = forms.Form
type FormVersion = forms.FormVersion
type Stage = forms.Stage
type Section = forms.Section
type Field = forms.Field
type FieldRule = forms.FieldRule
type StageAccessRule = forms.StageAccessRule
type StageTransition = forms.StageTransition
type StageTransitionAction = forms.StageTransitionAction

type Entry = entries.Entry
type EntryValue = entries.EntryValue

type FieldType = catalog.FieldType
type InputRule = catalog.InputRule
type Action = catalog.Action

type User = identity.User
type Role = identity.Role
type Permission = identity.Permission
type UserRole = identity.UserRole
type UserPermission = identity.UserPermission
type RolePermission = identity.RolePermission

const PermissionFormsManage = identity.PermissionFormsManage

type Translation = i18n.Translation

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&FieldType{},
		&InputRule{},
		&Action{},

		&User{},
		&Role{},
		&Permission{},
		&UserRole{},
		&UserPermission{},
		&RolePermission{},

		&Form{},
		&FormVersion{},
		&Stage{},
		&Section{},
		&Field{},
		&FieldRule{},
		&StageAccessRule{},
		&StageTransition{},
		&StageTransitionAction{},

		&Entry{},
		&EntryValue{},

		&Translation{},
	}
}
