package logger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSanitizeKVs(t *testing.T) {
	if !redactionOn() {
		t.Skip("redaction disabled by LOG_REDACTION_ENABLED")
	}
	var missing *uuid.UUID
	id := uuid.New()

	out := sanitizeKVs([]interface{}{
		"created_by", missing,
		"owner_user_id", id,
		"access_token", "abc",
		"form_id", id,
	})
	if len(out) != 8 {
		t.Fatalf("len=%d want 8", len(out))
	}
	if out[1] != "" {
		t.Fatalf("nil pointer hashed to %v, want empty", out[1])
	}
	if s, _ := out[3].(string); !strings.HasPrefix(s, "hash:") || strings.Contains(s, id.String()) {
		t.Fatalf("user id not hashed: %v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", out[5])
	}
	if out[7] != id {
		t.Fatalf("plain key rewritten: %v", out[7])
	}
}

func TestToStringNilStringer(t *testing.T) {
	var missing *uuid.UUID
	if got := toString(missing); got != "" {
		t.Fatalf("toString(nil *UUID)=%q", got)
	}
	id := uuid.New()
	if got := toString(&id); got != id.String() {
		t.Fatalf("toString(&id)=%q want %q", got, id.String())
	}
}
