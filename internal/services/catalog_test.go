package services

import (
	"testing"

	repotest "github.com/yungbote/formflow-backend/internal/data/repos/testutil"
)

func TestCatalogServiceCachesUntilInvalidate(t *testing.T) {
	h := newHarness(t)

	first, err := h.catalog.Snapshot(h.ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	second, err := h.catalog.Snapshot(h.ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached snapshot to be reused")
	}
	if key := first.FieldTypeKey(repotest.FieldTypeID("email")); key != "email" {
		t.Fatalf("FieldTypeKey=%q want email", key)
	}

	h.catalog.Invalidate()
	third, err := h.catalog.Snapshot(h.ctx)
	if err != nil {
		t.Fatalf("Snapshot after Invalidate: %v", err)
	}
	if third == first {
		t.Fatalf("expected a fresh snapshot after Invalidate")
	}
	if !third.HasAction(repotest.ActionID("webhook")) {
		t.Fatalf("reloaded snapshot lost the webhook action")
	}
}
