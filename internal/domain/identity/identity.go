package identity

import (
	"time"

	"github.com/google/uuid"
)

const PermissionFormsManage = "forms.manage"

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	FirstName string    `gorm:"column:first_name" json:"first_name"`
	LastName  string    `gorm:"column:last_name" json:"last_name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

type Role struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
}

func (Role) TableName() string { return "role" }

type Permission struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key  string    `gorm:"column:key;not null;uniqueIndex" json:"key"`
	Name string    `gorm:"column:name" json:"name"`
}

func (Permission) TableName() string { return "permission" }

type UserRole struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RoleID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"role_id"`
}

func (UserRole) TableName() string { return "user_role" }

type UserPermission struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	PermissionID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"permission_id"`
}

func (UserPermission) TableName() string { return "user_permission" }

type RolePermission struct {
	RoleID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"role_id"`
	PermissionID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"permission_id"`
}

func (RolePermission) TableName() string { return "role_permission" }
