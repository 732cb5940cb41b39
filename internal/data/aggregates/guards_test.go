package aggregates

import (
	"testing"

	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
)

func TestRequireStatusAllowed(t *testing.T) {
	if err := RequireStatusAllowed("draft", "draft"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := RequireStatusAllowed("published", "draft")
	if err == nil {
		t.Fatalf("expected invalid state error")
	}
	if !domainagg.IsCode(MapError("op", err), domainagg.CodeInvalidState) {
		t.Fatalf("expected invalid_state code, got %v", MapError("op", err))
	}
}

func TestRequireRevisionMatch(t *testing.T) {
	three := 3
	if err := RequireRevisionMatch(3, &three); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireRevisionMatch(7, nil); err != nil {
		t.Fatalf("nil expectation should match: %v", err)
	}
	if err := RequireRevisionMatch(2, &three); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}
