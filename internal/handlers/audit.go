package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"buildtrack/internal/database"
	"buildtrack/internal/models"
)

// ListAuditLogs returns the most recent audit trail entries. Role gating
// happens in the router.
func ListAuditLogs(c *gin.Context) {
	q := database.DB.Preload("Profile").Preload("Profile.User").
		Order("created_at desc").
		Limit(200)

	if entity := c.Query("entity"); entity != "" {
		q = q.Where("entity = ?", entity)
	}
	if profileID := c.Query("profile"); profileID != "" {
		if id, err := strconv.Atoi(profileID); err == nil && id > 0 {
			q = q.Where("profile_id = ?", id)
		}
	}

	var logs []models.AuditLog
	if err := q.Find(&logs).Error; err != nil {
		respond(c, http.StatusInternalServerError, gin.H{"error": "failed to load audit logs"})
		return
	}

	respond(c, http.StatusOK, gin.H{"logs": logs})
}
