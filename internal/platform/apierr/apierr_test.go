package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	domainagg "github.com/yungbote/formflow-backend/internal/domain/aggregates"
)

func TestFromErrorMapsAggregateCodes(t *testing.T) {
	cases := []struct {
		code   domainagg.ErrorCode
		status int
	}{
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeInvalidState, http.StatusConflict},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodeAccessDenied, http.StatusForbidden},
		{domainagg.CodeValidation, http.StatusBadRequest},
		{domainagg.CodeInvariantViolation, http.StatusUnprocessableEntity},
		{domainagg.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := fmt.Errorf("wrapped: %w", domainagg.NewError(tc.code, "op", "msg", nil))
		got := FromError(err)
		if got.Status != tc.status {
			t.Fatalf("%s: want status=%d got=%d", tc.code, tc.status, got.Status)
		}
	}
}

func TestFromErrorPassesThroughAPIError(t *testing.T) {
	in := New(http.StatusTeapot, "teapot", errors.New("short and stout"))
	if got := FromError(fmt.Errorf("ctx: %w", in)); got != in {
		t.Fatalf("expected passthrough, got %+v", got)
	}
	if got := FromError(errors.New("plain")); got.Status != http.StatusInternalServerError || got.Code != "internal" {
		t.Fatalf("plain error: got %+v", got)
	}
	if FromError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
}
