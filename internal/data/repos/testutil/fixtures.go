package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/formflow-backend/internal/data/db"
	types "github.com/yungbote/formflow-backend/internal/domain"
)

// FieldTypeID returns the seeded id of a field type key.
func FieldTypeID(key string) uuid.UUID { return dbpkg.CatalogID("field_type", key) }

// InputRuleID returns the seeded id of an input rule key.
func InputRuleID(key string) uuid.UUID { return dbpkg.CatalogID("input_rule", key) }

// ActionID returns the seeded id of an action key.
func ActionID(key string) uuid.UUID { return dbpkg.CatalogID("action", key) }

// PermissionID returns the seeded id of a permission key.
func PermissionID(key string) uuid.UUID { return dbpkg.CatalogID("permission", key) }

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedRole(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Role {
	tb.Helper()
	r := &types.Role{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed role: %v", err)
	}
	return r
}

func SeedForm(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Form {
	tb.Helper()
	f := &types.Form{ID: uuid.New(), Name: name, Category: "test"}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed form: %v", err)
	}
	return f
}

func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, formID uuid.UUID, number int, status string) *types.FormVersion {
	tb.Helper()
	v := &types.FormVersion{
		ID:            uuid.New(),
		FormID:        formID,
		VersionNumber: number,
		Status:        status,
	}
	if status == types.VersionStatusPublished {
		now := time.Now().UTC()
		v.PublishedAt = &now
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed version: %v", err)
	}
	return v
}
