package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formflow-backend/internal/platform/ctxutil"
)

// AttachRequestContext resolves the request language from ?lang= or the first
// Accept-Language tag.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := strings.TrimSpace(c.Query("lang"))
		if lang == "" {
			lang = firstLanguageTag(c.GetHeader("Accept-Language"))
		}
		if lang != "" {
			c.Request = c.Request.WithContext(ctxutil.WithLanguage(c.Request.Context(), lang))
		}
		c.Next()
	}
}

func firstLanguageTag(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	tag := strings.Split(header, ",")[0]
	tag = strings.TrimSpace(strings.Split(tag, ";")[0])
	if tag == "*" {
		return ""
	}
	return tag
}
