package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formflow-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext(), AttachRequestContext())
	var (
		td   *ctxutil.TraceData
		lang string
	)
	r.GET("/x", func(c *gin.Context) {
		td = ctxutil.GetTraceData(c.Request.Context())
		lang = ctxutil.Language(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x?lang=fr", nil)
	req.Header.Set(headerRequestID, "req-1")
	req.Header.Set(headerTraceID, "trace-1")
	req.Header.Set("Accept-Language", "de")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if td == nil || td.RequestID != "req-1" || td.TraceID != "trace-1" {
		t.Fatalf("trace data=%+v", td)
	}
	if rec.Header().Get(headerRequestID) != "req-1" || rec.Header().Get(headerTraceID) != "trace-1" {
		t.Fatalf("headers=%v", rec.Header())
	}
	if lang != "fr" {
		t.Fatalf("lang=%q want query value", lang)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if td == nil || td.RequestID == "" || td.TraceID == "" || lang != "" {
		t.Fatalf("generated trace data=%+v lang=%q", td, lang)
	}
}
