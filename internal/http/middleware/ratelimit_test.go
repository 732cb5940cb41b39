package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSubmitLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim := NewSubmitLimiter(2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/submit", lim.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if got := do("10.0.0.1"); got != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, got)
		}
	}
	if got := do("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("third request: status=%d want 429", got)
	}
	if got := do("10.0.0.2"); got != http.StatusOK {
		t.Fatalf("other client: status=%d", got)
	}

	now = now.Add(31 * time.Second)
	if got := do("10.0.0.1"); got != http.StatusOK {
		t.Fatalf("after refill: status=%d", got)
	}
}

func TestSubmitLimiterDisabled(t *testing.T) {
	if NewSubmitLimiter(0) != nil {
		t.Fatalf("zero rate should disable the limiter")
	}
	var lim *SubmitLimiter
	r := gin.New()
	r.POST("/submit", lim.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status=%d", rec.Code)
		}
	}
}

func TestFirstLanguageTag(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"fr-CA,fr;q=0.9,en;q=0.8": "fr-CA",
		"de;q=0.7":                "de",
		"*":                       "",
	}
	for in, want := range cases {
		if got := firstLanguageTag(in); got != want {
			t.Fatalf("firstLanguageTag(%q)=%q want %q", in, got, want)
		}
	}
}
