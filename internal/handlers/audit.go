package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/database"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs filters by ?entity, ?entity_id, ?user_id, ?action, ?since
// (RFC 3339) and ?limit.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	f := database.AuditFilter{
		Entity:   c.Query("entity"),
		EntityID: queryID(c, "entity_id"),
		UserID:   queryID(c, "user_id"),
		Action:   c.Query("action"),
	}
	if s := c.Query("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			badRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
		f.Since = since
	}
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.ParseUint(l, 10, 64); err == nil {
			f.Limit = n
		}
	}

	logs, err := h.engine.ListAudit(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
