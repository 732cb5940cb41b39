package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formflow-backend/internal/platform/apierr"
)

// RespondFromError writes err using the status and code apierr derives from it.
func RespondFromError(c *gin.Context, err error) {
	ae := apierr.FromError(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}
