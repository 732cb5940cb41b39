package refs

import (
	"fmt"
	"testing"
)

func TestRoleOf(t *testing.T) {
	cases := []struct {
		key  string
		want Role
	}{
		{"stage_id", RoleStage},
		{"from_stage_id", RoleStage},
		{"next_stage_ids", RoleStage},
		{"section_id", RoleSection},
		{"parent_section_id", RoleSection},
		{"field", RoleField},
		{"compare_field", RoleField},
		{"target_field_id", RoleField},
		{"Email_Field_ID", RoleField},
		{"transition_id", RoleTransition},
		{"fallback_transition_id", RoleTransition},
		{"stage_id_ref", RoleStage},
		{"prev_field_id_list", RoleField},
		{"section_ids_hidden", RoleSection},
		{"transition_id_on_timeout", RoleTransition},
		{"comparevalue", RoleOpaque},
		{"label", RoleNone},
		{"", RoleNone},
	}
	for _, tc := range cases {
		if got := RoleOf(tc.key); got != tc.want {
			t.Fatalf("RoleOf(%q): want=%s got=%s", tc.key, tc.want, got)
		}
	}
}

func TestRoleOfMemoizes(t *testing.T) {
	r := newRegistry()
	_ = r.roleOf("owner_field_id")
	v, ok := r.cache.Load("owner_field_id")
	if !ok || v.(Role) != RoleField {
		t.Fatalf("expected memoized field role, got %v ok=%v", v, ok)
	}
}

func TestRoleOfCachesOnlyRoleKeys(t *testing.T) {
	r := newRegistry()
	_ = r.roleOf("free_text")
	if _, ok := r.cache.Load("free_text"); ok {
		t.Fatalf("key without role should not be memoized")
	}
	for i := 0; i < maxCachedKeys+10; i++ {
		key := fmt.Sprintf("k%d_field_id", i)
		if got := r.roleOf(key); got != RoleField {
			t.Fatalf("RoleOf(%q)=%s want field", key, got)
		}
	}
	n := 0
	r.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	if n != maxCachedKeys {
		t.Fatalf("cache size=%d want %d", n, maxCachedKeys)
	}
}
