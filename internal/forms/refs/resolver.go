package refs

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Policy decides what happens to a placeholder under a reference key that no map knows.
type Policy int

const (
	// KeepUnresolved leaves unknown tokens in place.
	KeepUnresolved Policy = iota
	// NullUnresolvedPlaceholders replaces unknown placeholders with null. Unknown real
	// ids are still kept.
	NullUnresolvedPlaceholders
)

// Maps holds token -> id substitutions per entity kind. A token is either a
// client placeholder or a previously assigned id.
type Maps struct {
	Stages      map[string]string `json:"stages"`
	Sections    map[string]string `json:"sections"`
	Fields      map[string]string `json:"fields"`
	Transitions map[string]string `json:"transitions"`
}

func NewMaps() Maps {
	return Maps{
		Stages:      map[string]string{},
		Sections:    map[string]string{},
		Fields:      map[string]string{},
		Transitions: map[string]string{},
	}
}

func (m Maps) forRole(role Role) map[string]string {
	switch role {
	case RoleStage:
		return m.Stages
	case RoleSection:
		return m.Sections
	case RoleField:
		return m.Fields
	case RoleTransition:
		return m.Transitions
	default:
		return nil
	}
}

// Lookup returns the substitution for token under role.
func (m Maps) Lookup(role Role, token string) (string, bool) {
	mm := m.forRole(role)
	if mm == nil {
		return "", false
	}
	v, ok := mm[strings.TrimSpace(token)]
	return v, ok
}

// fallbackOrder is the map priority for scalars not reached through a reference key.
var fallbackOrder = []Role{RoleField, RoleStage, RoleSection, RoleTransition}

// IsPlaceholder reports whether token is a client placeholder rather than a real id.
func IsPlaceholder(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	_, err := uuid.Parse(token)
	return err != nil
}

// ResolveToken applies the token policy for a value under a reference key.
// ok=false means the token must be replaced with null.
func ResolveToken(token string, role Role, m Maps, policy Policy) (string, bool) {
	if v, hit := m.Lookup(role, token); hit {
		return v, true
	}
	if policy == NullUnresolvedPlaceholders && IsPlaceholder(token) {
		return "", false
	}
	return token, true
}

// Resolve returns a copy of value with every resolvable reference replaced.
// value is JSON-decoded data (maps, slices, scalars); strings holding JSON
// objects or arrays are decoded, resolved and re-encoded.
func Resolve(value any, m Maps, policy Policy) any {
	return resolve(value, RoleNone, m, policy)
}

// ResolveJSON resolves an encoded JSON document. Empty input is returned as is.
func ResolveJSON(raw []byte, m Maps, policy Policy) ([]byte, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(Resolve(v, m, policy))
}

func resolve(value any, role Role, m Maps, policy Policy) any {
	if role == RoleOpaque {
		return clone(value)
	}
	switch t := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = resolve(child, RoleOf(k), m, policy)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = resolve(child, role, m, policy)
		}
		return out
	case string:
		return resolveString(t, role, m, policy)
	default:
		return t
	}
}

func resolveString(s string, role Role, m Maps, policy Policy) any {
	if decoded, ok := decodeStructured(s); ok {
		b, err := json.Marshal(resolve(decoded, role, m, policy))
		if err != nil {
			return s
		}
		return string(b)
	}
	if role != RoleNone {
		v, keep := ResolveToken(s, role, m, policy)
		if !keep {
			return nil
		}
		return v
	}
	for _, r := range fallbackOrder {
		if v, hit := m.Lookup(r, s); hit {
			return v
		}
	}
	return s
}

func decodeStructured(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return nil, false
	}
	if !(trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}') && !(trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, false
	}
	return v, true
}

func clone(value any) any {
	switch t := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = clone(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = clone(v)
		}
		return out
	default:
		return t
	}
}
