package controllers

import (
	"net/http"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionController exposes the account's own sessions: list, count,
// heartbeat, and manual termination.
type SessionController struct {
	sessions services.SessionRegistry
}

func NewSessionController(sessions services.SessionRegistry) *SessionController {
	return &SessionController{sessions: sessions}
}

// List returns the account's active sessions. Client tokens are never
// included; rows are addressed by their id.
// GET /sessions
func (sc *SessionController) List(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessions, err := sc.sessions.GetUserSessions(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, gin.H{
			"id":               s.ID,
			"ip_address":       s.IPAddress,
			"user_agent":       s.UserAgent,
			"created_at":       s.CreatedAt,
			"last_activity_at": s.LastActivityAt,
			"expires_at":       s.ExpiresAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

// Count returns the active session count, served through the count cache.
// GET /sessions/count
func (sc *SessionController) Count(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := sc.sessions.ActiveSessionCount(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"active_sessions": count})
}

// Extend refreshes the sliding expiration of the current session.
// POST /sessions/extend
func (sc *SessionController) Extend(c *gin.Context) {
	token, _ := c.Get("sessionToken")
	clientToken, ok := token.(string)
	if !ok || clientToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sc.sessions.UpdateLastActivity(clientToken)
	c.JSON(http.StatusOK, gin.H{"message": "Session extended"})
}

// Terminate ends one of the account's own sessions by id.
// DELETE /sessions/:id
func (sc *SessionController) Terminate(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	session, err := sc.sessions.GetByID(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}
	if session == nil || session.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	if err := sc.sessions.TerminateByID(sessionID, services.ReasonManual); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to terminate session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session terminated"})
}

// TerminateAll ends every session of the account, including the current
// one.
// DELETE /sessions
func (sc *SessionController) TerminateAll(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := sc.sessions.TerminateAllSessions(user.ID, services.ReasonAllEnded); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to terminate sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All sessions terminated"})
}
