package refs

import (
	"strings"
	"sync"
	"sync/atomic"
)

// maxCachedKeys caps the memo; keys come from client payloads.
const maxCachedKeys = 1024

// Role names the kind of entity a JSON key refers to.
type Role int

const (
	RoleNone Role = iota
	RoleStage
	RoleSection
	RoleField
	RoleTransition
	// RoleOpaque marks keys whose values are literals and must never be rewritten.
	RoleOpaque
)

func (r Role) String() string {
	switch r {
	case RoleStage:
		return "stage"
	case RoleSection:
		return "section"
	case RoleField:
		return "field"
	case RoleTransition:
		return "transition"
	case RoleOpaque:
		return "opaque"
	default:
		return "none"
	}
}

type keyRule struct {
	part string
	role Role
}

type registry struct {
	exact    map[string]Role
	suffixes []keyRule
	contains []keyRule
	cache    sync.Map // normalized key -> Role
	cached   atomic.Int32
}

var defaultRegistry = newRegistry()

func newRegistry() *registry {
	return &registry{
		exact: map[string]Role{
			"stage_id":        RoleStage,
			"from_stage_id":   RoleStage,
			"to_stage_id":     RoleStage,
			"stage_ids":       RoleStage,
			"section_id":      RoleSection,
			"section_ids":     RoleSection,
			"field_id":        RoleField,
			"field_ids":       RoleField,
			"email_field_id":  RoleField,
			"target_field_id": RoleField,
			"compare_field":   RoleField,
			"field":           RoleField,
			"transition_id":   RoleTransition,
			"transition_ids":  RoleTransition,
			"comparevalue":    RoleOpaque,
		},
		// transition before stage so "*_transition_id" never matches a stage rule.
		suffixes: []keyRule{
			{"_transition_id", RoleTransition},
			{"_transition_ids", RoleTransition},
			{"_section_id", RoleSection},
			{"_section_ids", RoleSection},
			{"_field_id", RoleField},
			{"_field_ids", RoleField},
			{"_stage_id", RoleStage},
			{"_stage_ids", RoleStage},
		},
		contains: []keyRule{
			{"transition_id", RoleTransition},
			{"section_id", RoleSection},
			{"field_id", RoleField},
			{"stage_id", RoleStage},
		},
	}
}

// RoleOf classifies a JSON key: exact names first, then suffixes, then any key
// containing an id marker. Keys with a role are memoized up to maxCachedKeys.
func RoleOf(key string) Role {
	return defaultRegistry.roleOf(key)
}

func (r *registry) roleOf(key string) Role {
	norm := strings.ToLower(strings.TrimSpace(key))
	if norm == "" {
		return RoleNone
	}
	if v, ok := r.cache.Load(norm); ok {
		return v.(Role)
	}
	role := r.classify(norm)
	if role != RoleNone && r.cached.Add(1) <= maxCachedKeys {
		r.cache.Store(norm, role)
	}
	return role
}

func (r *registry) classify(norm string) Role {
	if role, ok := r.exact[norm]; ok {
		return role
	}
	for _, rule := range r.suffixes {
		if strings.HasSuffix(norm, rule.part) {
			return rule.role
		}
	}
	for _, rule := range r.contains {
		if strings.Contains(norm, rule.part) {
			return rule.role
		}
	}
	return RoleNone
}
