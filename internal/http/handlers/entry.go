package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formflow-backend/internal/data/aggregates"
	"github.com/yungbote/formflow-backend/internal/forms/conditions"
	"github.com/yungbote/formflow-backend/internal/http/response"
	"github.com/yungbote/formflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/formflow-backend/internal/services"
)

type EntryHandler struct {
	entries services.EntryService
}

func NewEntryHandler(entries services.EntryService) *EntryHandler {
	return &EntryHandler{entries: entries}
}

type submitRequest struct {
	Values       conditions.Values `json:"values"`
	TransitionID *string           `json:"transition_id"`
}

// POST /api/versions/:id/entries
// body: { "values": { "<field_id>": ... }, "transition_id": "..." }
func (h *EntryHandler) SubmitInitial(c *gin.Context) {
	versionID, ok := uuidParam(c, "id", "invalid_version_id")
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	transitionID, err := parseOptionalUUID(req.TransitionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_transition_id", err)
		return
	}
	ctx := c.Request.Context()
	view, err := h.entries.SubmitInitial(ctx, services.SubmitInitialInput{
		VersionID:      versionID,
		Values:         req.Values,
		TransitionID:   transitionID,
		IdempotencyKey: c.GetHeader(headerIdempotencyKey),
		LanguageID:     ctxutil.Language(ctx),
	}, services.CallerFrom(ctx))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	respondSubmission(c, view, http.StatusCreated)
}

// GET /api/entries/:public_id
func (h *EntryHandler) GetEntry(c *gin.Context) {
	ctx := c.Request.Context()
	entry, err := h.entries.GetEntry(ctx, c.Param("public_id"), services.CallerFrom(ctx), ctxutil.Language(ctx))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"entry": entry})
}

// POST /api/entries/:public_id/submit
// body: { "values": { ... }, "transition_id": "..." }
func (h *EntryHandler) SubmitLaterStage(c *gin.Context) {
	publicID := strings.TrimSpace(c.Param("public_id"))
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	transitionID, err := parseOptionalUUID(req.TransitionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_transition_id", err)
		return
	}
	ctx := c.Request.Context()
	view, err := h.entries.SubmitLaterStage(ctx, services.SubmitLaterStageInput{
		PublicIdentifier: publicID,
		Values:           req.Values,
		TransitionID:     transitionID,
		IdempotencyKey:   c.GetHeader(headerIdempotencyKey),
		LanguageID:       ctxutil.Language(ctx),
	}, services.CallerFrom(ctx))
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	respondSubmission(c, view, http.StatusOK)
}

// respondSubmission reports field violations as 422 with the submission body,
// so clients read errors from the same shape either way.
func respondSubmission(c *gin.Context, view *services.SubmissionView, okStatus int) {
	if view.Status == aggregates.SubmissionValidationFailed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"submission": view})
		return
	}
	c.JSON(okStatus, gin.H{"submission": view})
}
