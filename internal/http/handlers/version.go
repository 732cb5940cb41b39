package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formflow-backend/internal/forms/graph"
	"github.com/yungbote/formflow-backend/internal/http/response"
	"github.com/yungbote/formflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/formflow-backend/internal/services"
)

type VersionHandler struct {
	versions services.VersionService
}

func NewVersionHandler(versions services.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

// PUT /api/versions/:id/structure
// body: graph.StructurePayload, optionally with "expected_revision"
func (h *VersionHandler) RewriteDraft(c *gin.Context) {
	versionID, ok := uuidParam(c, "id", "invalid_version_id")
	if !ok {
		return
	}
	var payload graph.StructurePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.versions.RewriteDraft(c.Request.Context(), versionID, payload)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/versions/:id/publish
// body: { "expected_revision": 3 } (optional)
func (h *VersionHandler) PublishDraft(c *gin.Context) {
	versionID, ok := uuidParam(c, "id", "invalid_version_id")
	if !ok {
		return
	}
	var req struct {
		ExpectedRevision *int `json:"expected_revision"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	view, err := h.versions.PublishDraft(c.Request.Context(), versionID, req.ExpectedRevision)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/versions/:id
func (h *VersionHandler) GetVersion(c *gin.Context) {
	versionID, ok := uuidParam(c, "id", "invalid_version_id")
	if !ok {
		return
	}
	view, err := h.versions.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/versions/:id/initial-stage?lang=
func (h *VersionHandler) GetInitialStage(c *gin.Context) {
	versionID, ok := uuidParam(c, "id", "invalid_version_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	stage, err := h.versions.GetInitialStageStructure(ctx, versionID, services.CallerFrom(ctx), ctxutil.Language(ctx))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stage": stage})
}
