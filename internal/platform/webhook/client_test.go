package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/formflow-backend/internal/platform/logger"
)

func TestPostSendsJSONWithHeaders(t *testing.T) {
	var gotBody map[string]any
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Signature")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(logger.Nop(), Config{})
	res, err := c.Post(context.Background(), Request{
		URL:     srv.URL,
		Headers: map[string]string{"X-Signature": "abc"},
		Body:    map[string]any{"entry": "e1"},
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if res.StatusCode != http.StatusNoContent || res.Attempts != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if gotHeader != "abc" || gotBody["entry"] != "e1" {
		t.Fatalf("unexpected request header=%q body=%v", gotHeader, gotBody)
	}
}

func TestPostRetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(logger.Nop(), Config{MaxRetries: 2, InitialBackoff: time.Millisecond})
	res, err := c.Post(context.Background(), Request{URL: srv.URL, Body: map[string]any{}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.Attempts != 3 || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got result=%d server=%d", res.Attempts, calls)
	}
}

func TestPostRejectsBadURL(t *testing.T) {
	c := New(logger.Nop(), Config{})
	for _, u := range []string{"", "ftp://example.com", "not a url"} {
		if _, err := c.Post(context.Background(), Request{URL: u}); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}
