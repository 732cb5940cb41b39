package db

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/formflow-backend/internal/domain"
)

//go:embed catalog_seed.yaml
var catalogSeedYAML []byte

type seedEntry struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	PropsSchema string `yaml:"props_schema"`
}

type catalogSeed struct {
	FieldTypes  []seedEntry `yaml:"field_types"`
	InputRules  []seedEntry `yaml:"input_rules"`
	Actions     []seedEntry `yaml:"actions"`
	Permissions []seedEntry `yaml:"permissions"`
}

// CatalogID is the stable id of a seeded catalog row, identical across databases.
func CatalogID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("formflow:"+kind+":"+strings.TrimSpace(key)))
}

// SeedCatalog inserts the embedded catalog rows, leaving existing keys alone.
func SeedCatalog(db *gorm.DB) error {
	var seed catalogSeed
	if err := yaml.Unmarshal(catalogSeedYAML, &seed); err != nil {
		return fmt.Errorf("decode catalog seed: %w", err)
	}
	onKey := clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}

	fieldTypes := make([]*types.FieldType, 0, len(seed.FieldTypes))
	for _, e := range seed.FieldTypes {
		fieldTypes = append(fieldTypes, &types.FieldType{ID: CatalogID("field_type", e.Key), Key: e.Key, Name: e.Name})
	}
	inputRules := make([]*types.InputRule, 0, len(seed.InputRules))
	for _, e := range seed.InputRules {
		inputRules = append(inputRules, &types.InputRule{ID: CatalogID("input_rule", e.Key), Key: e.Key, Name: e.Name, PropsSchema: schemaJSON(e.PropsSchema)})
	}
	actions := make([]*types.Action, 0, len(seed.Actions))
	for _, e := range seed.Actions {
		actions = append(actions, &types.Action{ID: CatalogID("action", e.Key), Key: e.Key, Name: e.Name, PropsSchema: schemaJSON(e.PropsSchema)})
	}
	perms := make([]*types.Permission, 0, len(seed.Permissions))
	for _, e := range seed.Permissions {
		perms = append(perms, &types.Permission{ID: CatalogID("permission", e.Key), Key: e.Key, Name: e.Name})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if len(fieldTypes) > 0 {
			if err := tx.Clauses(onKey).Create(&fieldTypes).Error; err != nil {
				return fmt.Errorf("seed field types: %w", err)
			}
		}
		if len(inputRules) > 0 {
			if err := tx.Clauses(onKey).Create(&inputRules).Error; err != nil {
				return fmt.Errorf("seed input rules: %w", err)
			}
		}
		if len(actions) > 0 {
			if err := tx.Clauses(onKey).Create(&actions).Error; err != nil {
				return fmt.Errorf("seed actions: %w", err)
			}
		}
		if len(perms) > 0 {
			if err := tx.Clauses(onKey).Create(&perms).Error; err != nil {
				return fmt.Errorf("seed permissions: %w", err)
			}
		}
		return nil
	})
}

func schemaJSON(s string) datatypes.JSON {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return datatypes.JSON(s)
}
