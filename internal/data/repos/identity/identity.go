package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/formflow-backend/internal/domain"
	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

// Grants is everything the access checker needs to know about a user.
type Grants struct {
	User           *types.User
	RoleIDs        []uuid.UUID
	PermissionIDs  []uuid.UUID
	PermissionKeys []string
}

type IdentityRepo interface {
	CreateUser(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetUserByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	LoadGrants(dbc dbctx.Context, userID uuid.UUID) (*Grants, error)
	AssignRole(dbc dbctx.Context, userID, roleID uuid.UUID) error
	GrantPermission(dbc dbctx.Context, userID, permissionID uuid.UUID) error
	GrantRolePermission(dbc dbctx.Context, roleID, permissionID uuid.UUID) error
}

type identityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	return &identityRepo{db: db, log: baseLog.With("repo", "IdentityRepo")}
}

func (r *identityRepo) tx(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *identityRepo) CreateUser(dbc dbctx.Context, u *types.User) (*types.User, error) {
	if u == nil {
		return nil, fmt.Errorf("missing user")
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.TrimSpace(u.Email)
	if err := r.tx(dbc).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByID returns nil without error when the user does not exist.
func (r *identityRepo) GetUserByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.User
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// LoadGrants collects roles and the union of direct and role-derived permissions.
// Unknown users yield nil.
func (r *identityRepo) LoadGrants(dbc dbctx.Context, userID uuid.UUID) (*Grants, error) {
	u, err := r.GetUserByID(dbc, userID)
	if err != nil || u == nil {
		return nil, err
	}
	out := &Grants{User: u}

	if err := r.tx(dbc).
		Model(&types.UserRole{}).
		Where("user_id = ?", userID).
		Pluck("role_id", &out.RoleIDs).Error; err != nil {
		return nil, err
	}

	var direct []uuid.UUID
	if err := r.tx(dbc).
		Model(&types.UserPermission{}).
		Where("user_id = ?", userID).
		Pluck("permission_id", &direct).Error; err != nil {
		return nil, err
	}
	var viaRoles []uuid.UUID
	if len(out.RoleIDs) > 0 {
		if err := r.tx(dbc).
			Model(&types.RolePermission{}).
			Where("role_id IN ?", out.RoleIDs).
			Pluck("permission_id", &viaRoles).Error; err != nil {
			return nil, err
		}
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range append(direct, viaRoles...) {
		if !seen[id] {
			seen[id] = true
			out.PermissionIDs = append(out.PermissionIDs, id)
		}
	}
	if len(out.PermissionIDs) > 0 {
		if err := r.tx(dbc).
			Model(&types.Permission{}).
			Where("id IN ?", out.PermissionIDs).
			Order("key ASC").
			Pluck("key", &out.PermissionKeys).Error; err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *identityRepo) AssignRole(dbc dbctx.Context, userID, roleID uuid.UUID) error {
	return r.tx(dbc).Create(&types.UserRole{UserID: userID, RoleID: roleID}).Error
}

func (r *identityRepo) GrantPermission(dbc dbctx.Context, userID, permissionID uuid.UUID) error {
	return r.tx(dbc).Create(&types.UserPermission{UserID: userID, PermissionID: permissionID}).Error
}

func (r *identityRepo) GrantRolePermission(dbc dbctx.Context, roleID, permissionID uuid.UUID) error {
	return r.tx(dbc).Create(&types.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error
}
