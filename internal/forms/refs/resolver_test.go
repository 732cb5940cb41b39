package refs

import (
	"encoding/json"
	"reflect"
	"testing"
)

const (
	realStage = "0b0e7a57-1d0f-4e3e-9a43-0d6c0d3a7c11"
	realField = "5f4f1b2e-8a1c-4b84-9d0e-6a7d2b9c3e21"
	oldField  = "9e8d7c6b-5a49-4838-a726-150f4e3d2c1b"
)

func testMaps() Maps {
	m := NewMaps()
	m.Stages["tmp-stage"] = realStage
	m.Fields["tmp-email"] = realField
	return m
}

func TestResolveSubstitutesRoleKeys(t *testing.T) {
	in := map[string]any{
		"op": "AND",
		"conditions": []any{
			map[string]any{"field": "tmp-email", "operator": "is_not_empty"},
			map[string]any{"field": "tmp-gone", "operator": "equals", "comparevalue": "tmp-email"},
		},
		"next_stage_id": "tmp-stage",
	}
	out := Resolve(in, testMaps(), NullUnresolvedPlaceholders).(map[string]any)

	conds := out["conditions"].([]any)
	if got := conds[0].(map[string]any)["field"]; got != realField {
		t.Fatalf("field: want=%s got=%v", realField, got)
	}
	if got := conds[1].(map[string]any)["field"]; got != nil {
		t.Fatalf("unresolved placeholder should be nulled, got %v", got)
	}
	if got := conds[1].(map[string]any)["comparevalue"]; got != "tmp-email" {
		t.Fatalf("comparevalue is a literal and must be kept, got %v", got)
	}
	if got := out["next_stage_id"]; got != realStage {
		t.Fatalf("next_stage_id: want=%s got=%v", realStage, got)
	}
}

func TestResolveKeepsUnknownRealIDs(t *testing.T) {
	in := map[string]any{"field_id": oldField, "stage_id": "tmp-missing"}
	out := Resolve(in, testMaps(), NullUnresolvedPlaceholders).(map[string]any)
	if out["field_id"] != oldField {
		t.Fatalf("real id should survive, got %v", out["field_id"])
	}
	if out["stage_id"] != nil {
		t.Fatalf("placeholder should be nulled, got %v", out["stage_id"])
	}

	kept := Resolve(in, testMaps(), KeepUnresolved).(map[string]any)
	if kept["stage_id"] != "tmp-missing" {
		t.Fatalf("KeepUnresolved should keep placeholder, got %v", kept["stage_id"])
	}
}

func TestResolveContainedRoleKeys(t *testing.T) {
	in := map[string]any{
		"stage_id_ref":       "tmp-stage",
		"prev_field_id_list": []any{"tmp-email", "tmp-gone"},
	}
	out := Resolve(in, testMaps(), NullUnresolvedPlaceholders).(map[string]any)
	if out["stage_id_ref"] != realStage {
		t.Fatalf("stage_id_ref: want=%s got=%v", realStage, out["stage_id_ref"])
	}
	list := out["prev_field_id_list"].([]any)
	if list[0] != realField {
		t.Fatalf("prev_field_id_list[0]: want=%s got=%v", realField, list[0])
	}
	if list[1] != nil {
		t.Fatalf("unresolved placeholder should be nulled, got %v", list[1])
	}
}

func TestResolveFallbackOrderForUnannotatedScalars(t *testing.T) {
	m := NewMaps()
	m.Stages["shared"] = realStage
	m.Fields["shared"] = realField
	out := Resolve(map[string]any{"targets": []any{"shared", "untouched"}}, m, NullUnresolvedPlaceholders).(map[string]any)
	targets := out["targets"].([]any)
	if targets[0] != realField {
		t.Fatalf("field map must win, got %v", targets[0])
	}
	if targets[1] != "untouched" {
		t.Fatalf("miss must be left unchanged, got %v", targets[1])
	}
}

func TestResolveEncodedText(t *testing.T) {
	in := map[string]any{"payload": `{"field_id":"tmp-email"}`}
	out := Resolve(in, testMaps(), NullUnresolvedPlaceholders).(map[string]any)
	text, ok := out["payload"].(string)
	if !ok {
		t.Fatalf("encoded text must stay text, got %T", out["payload"])
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["field_id"] != realField {
		t.Fatalf("nested field_id: got %v", decoded["field_id"])
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"field": "tmp-email", "list": []any{"tmp-stage"}}
	snapshot := map[string]any{"field": "tmp-email", "list": []any{"tmp-stage"}}
	_ = Resolve(in, testMaps(), NullUnresolvedPlaceholders)
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestResolveDeepNesting(t *testing.T) {
	var v any = map[string]any{"field": "tmp-email"}
	for i := 0; i < 500; i++ {
		v = map[string]any{"conditions": []any{v}}
	}
	out := Resolve(v, testMaps(), NullUnresolvedPlaceholders)
	for i := 0; i < 500; i++ {
		out = out.(map[string]any)["conditions"].([]any)[0]
	}
	if out.(map[string]any)["field"] != realField {
		t.Fatalf("deep leaf not resolved: %v", out)
	}
}

func TestResolveJSON(t *testing.T) {
	raw, err := ResolveJSON([]byte(`{"email_field_id":"tmp-email"}`), testMaps(), NullUnresolvedPlaceholders)
	if err != nil {
		t.Fatalf("ResolveJSON: %v", err)
	}
	if string(raw) != `{"email_field_id":"`+realField+`"}` {
		t.Fatalf("unexpected output %s", raw)
	}
	if _, err := ResolveJSON([]byte(`{bad`), testMaps(), KeepUnresolved); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestIsPlaceholder(t *testing.T) {
	if IsPlaceholder(realField) {
		t.Fatalf("uuid is not a placeholder")
	}
	if !IsPlaceholder("tmp-1") {
		t.Fatalf("tmp-1 is a placeholder")
	}
	if IsPlaceholder("  ") {
		t.Fatalf("blank is not a placeholder")
	}
}
