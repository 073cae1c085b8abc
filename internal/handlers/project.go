package handlers

import (
	"net/http"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProjects supports ?client_id and ?status filters.
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.engine.ListProjects(c.Request.Context(), service.ProjectFilter{
		ClientID: queryID(c, "client_id"),
		Status:   models.ProjectStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in service.ProjectInput
	if !bind(c, &in) {
		return
	}
	p, err := h.engine.CreateProject(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.engine.GetProject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type statusForm struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) ChangeProjectStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form statusForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "status is required")
		return
	}
	p, err := h.engine.ChangeProjectStatus(c.Request.Context(), actor(c), id, models.ProjectStatus(form.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.TaskInput
	if !bind(c, &in) {
		return
	}
	in.ProjectID = id
	t, err := h.engine.CreateTask(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListTasks(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.engine.ListTasks(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := h.engine.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) SetTaskStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form statusForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "status is required")
		return
	}
	t, err := h.engine.SetTaskStatus(c.Request.Context(), actor(c), id, models.TaskStatus(form.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
