package handlers

import (
	"net/http"
	"strconv"

	"site-projects/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	defaultAuditLimit = 200
	maxAuditLimit     = 1000
)

// Последние записи журнала, ?entity=project&entity_id=5 сужает выборку.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	entityID, ok := queryID(c, "entity_id")
	if !ok {
		return
	}
	limit := defaultAuditLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "Некорректный параметр: limit")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	logs, err := database.AuditLogs(h.DB.WithContext(c.Request.Context()), c.Query("entity"), entityID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, logs, "")
}
