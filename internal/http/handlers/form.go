package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formflow-backend/internal/http/response"
	"github.com/yungbote/formflow-backend/internal/services"
)

type FormHandler struct {
	forms    services.FormService
	versions services.VersionService
}

func NewFormHandler(forms services.FormService, versions services.VersionService) *FormHandler {
	return &FormHandler{forms: forms, versions: versions}
}

// POST /api/forms
// body: { "name": "...", "category": "..." }
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ctx := c.Request.Context()
	form, err := h.forms.CreateForm(ctx, req.Name, req.Category, services.CallerFrom(ctx))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"form": form})
}

// GET /api/forms
func (h *FormHandler) ListForms(c *gin.Context) {
	ctx := c.Request.Context()
	forms, err := h.forms.ListAccessibleForms(ctx, services.CallerFrom(ctx))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	if forms == nil {
		forms = []services.FormSummary{}
	}
	response.RespondOK(c, gin.H{"forms": forms})
}

// POST /api/forms/:id/versions
// body: { "copy_from_current": true }
func (h *FormHandler) CreateVersion(c *gin.Context) {
	formID, ok := uuidParam(c, "id", "invalid_form_id")
	if !ok {
		return
	}
	var req struct {
		CopyFromCurrent bool `json:"copy_from_current"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	view, err := h.versions.CreateVersion(c.Request.Context(), formID, req.CopyFromCurrent)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondCreated(c, view)
}
