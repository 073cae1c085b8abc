package handlers

import (
	"context"
	"net/http"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateChecklist(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ChecklistInput
	if !bind(c, &in) {
		return
	}
	in.ProjectID = id
	res, err := h.engine.CreateChecklist(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListChecklists(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.engine.ListChecklists(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetChecklist(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	inst, err := h.engine.GetChecklist(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inst)
}

type itemForm struct {
	Value string `json:"value"`
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var form itemForm
	if !bind(c, &form) {
		return
	}
	res, err := h.engine.UpdateItem(c.Request.Context(), actor(c), id, itemID, form.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SubmitChecklist(c *gin.Context) {
	h.checklistStep(c, h.engine.SubmitForReview)
}

func (h *Handler) FinalizeChecklist(c *gin.Context) {
	h.checklistStep(c, h.engine.Finalize)
}

func (h *Handler) ReviseChecklist(c *gin.Context) {
	h.checklistStep(c, h.engine.Revise)
}

func (h *Handler) VerifyChecklist(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.VerifyInput
	if !bind(c, &in) {
		return
	}
	res, err := h.engine.Verify(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type checklistFunc func(ctx context.Context, actor workflow.Actor, id uint) (*service.ChecklistResult, error)

func (h *Handler) checklistStep(c *gin.Context, step checklistFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := step(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) AttachFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var in service.FileInput
	if !bind(c, &in) {
		return
	}
	res, err := h.engine.AttachFile(c.Request.Context(), actor(c), id, itemID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) UploadFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.FileInput
	if !bind(c, &in) {
		return
	}
	res, err := h.engine.UploadFileVersion(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type fileFunc func(ctx context.Context, actor workflow.Actor, id uint) (*service.FileResult, error)

func (h *Handler) fileStep(c *gin.Context, step fileFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := step(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) SubmitFile(c *gin.Context) {
	h.fileStep(c, h.engine.SubmitFile)
}

func (h *Handler) StartFileReview(c *gin.Context) {
	h.fileStep(c, h.engine.StartFileReview)
}

func (h *Handler) VerifyFile(c *gin.Context) {
	h.fileStep(c, h.engine.VerifyFile)
}

type remarksForm struct {
	Remarks string `json:"remarks"`
}

func (h *Handler) SendBackFile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form remarksForm
	if !bind(c, &form) {
		return
	}
	res, err := h.engine.SendBackFile(c.Request.Context(), actor(c), id, form.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) FileHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	history, err := h.engine.FileHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
