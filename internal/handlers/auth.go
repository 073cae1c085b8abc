package handlers

import (
	"errors"
	"net/http"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/middleware"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login starts a cookie session and also returns a bearer token for API
// clients.
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	user, err := h.engine.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(*user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"capabilities": actor(c).Capabilities.List(),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in service.UserInput
	if !bind(c, &in) {
		return
	}
	user, err := h.engine.CreateUser(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
