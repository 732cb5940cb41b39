package redisx

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := New(context.Background(), logger.Nop(), Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rdb.Close()
	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestNewRequiresAddr(t *testing.T) {
	if _, err := New(context.Background(), logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error without address")
	}
	if (Config{Addr: " "}).Enabled() {
		t.Fatalf("blank address should be disabled")
	}
}
