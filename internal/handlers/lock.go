package handlers

import (
	"net/http"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// lockable parses /lockables/:kind/:id.
func lockable(c *gin.Context) (models.LockableKind, uint, bool) {
	kind := models.LockableKind(c.Param("kind"))
	if !kind.Valid() {
		badRequest(c, "kind must be task or checklist_file")
		return "", 0, false
	}
	id, ok := paramID(c, "id")
	return kind, id, ok
}

func (h *Handler) GetLock(c *gin.Context) {
	kind, id, ok := lockable(c)
	if !ok {
		return
	}
	res, err := h.engine.GetLock(c.Request.Context(), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ManualLock(c *gin.Context) {
	kind, id, ok := lockable(c)
	if !ok {
		return
	}
	res, err := h.engine.ManualLock(c.Request.Context(), actor(c), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AutoLock(c *gin.Context) {
	kind, id, ok := lockable(c)
	if !ok {
		return
	}
	res, err := h.engine.AutoLock(c.Request.Context(), actor(c), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type unlockForm struct {
	Reason string `json:"reason"`
}

func (h *Handler) RequestUnlock(c *gin.Context) {
	kind, id, ok := lockable(c)
	if !ok {
		return
	}
	var form unlockForm
	if !bind(c, &form) {
		return
	}
	req, err := h.engine.RequestUnlock(c.Request.Context(), actor(c), kind, id, form.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) ReviewPendingUnlock(c *gin.Context) {
	kind, id, ok := lockable(c)
	if !ok {
		return
	}
	var in service.UnlockReviewInput
	if !bind(c, &in) {
		return
	}
	res, err := h.engine.ReviewPendingUnlock(c.Request.Context(), actor(c), kind, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DirectUnlock(c *gin.Context) {
	kind, id, ok := lockable(c)
	if !ok {
		return
	}
	res, err := h.engine.DirectUnlock(c.Request.Context(), actor(c), kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListUnlockRequests supports ?status, ?kind and ?lockable_id filters.
func (h *Handler) ListUnlockRequests(c *gin.Context) {
	list, err := h.engine.ListUnlockRequests(c.Request.Context(), service.UnlockFilter{
		Status: models.UnlockStatus(c.Query("status")),
		Kind:   models.LockableKind(c.Query("kind")),
		ID:     queryID(c, "lockable_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ReviewUnlockRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.UnlockReviewInput
	if !bind(c, &in) {
		return
	}
	res, err := h.engine.ReviewUnlockRequest(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
