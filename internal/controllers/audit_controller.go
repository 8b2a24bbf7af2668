package controllers

import (
	"net/http"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/gin-gonic/gin"
)

// AuditController lets an account review its own security trail.
type AuditController struct {
	logs repositories.AuditLogRepository
}

func NewAuditController(logs repositories.AuditLogRepository) *AuditController {
	return &AuditController{logs: logs}
}

// MyEvents lists the account's audit events, newest first, together with
// the failed-login count over the same window. The lookback defaults to
// 30 days.
// GET /user/audit
func (ac *AuditController) MyEvents(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	days := 30
	if d, err := time.ParseDuration(c.Query("lookback")); err == nil && d > 0 {
		days = int(d.Hours() / 24)
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	logs, err := ac.logs.ListForUser(user.ID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit log"})
		return
	}

	failedLogins, err := ac.logs.CountByAction(user.ID, models.AuditLoginFailed, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit log"})
		return
	}

	items := make([]gin.H, 0, len(logs))
	for _, entry := range logs {
		items = append(items, gin.H{
			"action":      entry.Action,
			"description": entry.Description,
			"ip_address":  entry.IPAddress,
			"user_agent":  entry.UserAgent,
			"timestamp":   entry.Timestamp,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"events":        items,
		"failed_logins": failedLogins,
	})
}
