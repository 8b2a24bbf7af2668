package middleware

import (
	"net/http"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionGuard enforces the session checks in a fixed order: cookie
// present, session is the account's current one, session still live.
// Each denial forces a logout so stale cookies cannot be replayed.
func SessionGuard(users repositories.UserRepository, sessions services.SessionRegistry, cfg *config.Config) Guard {
	return func(c *gin.Context) GuardResult {
		userID, ok := currentUserID(c)
		if !ok {
			return DenyAndLogout(http.StatusUnauthorized, "auth_missing")
		}

		clientToken, err := c.Cookie(cfg.Session.CookieName)
		if err != nil || clientToken == "" {
			return DenyAndLogout(http.StatusUnauthorized, "session_missing")
		}

		user, err := users.GetByID(userID)
		if err != nil || user == nil {
			return DenyAndLogout(http.StatusUnauthorized, "session_missing")
		}

		// A mismatch means a newer login replaced this session.
		if user.CurrentSessionToken == nil || *user.CurrentSessionToken != clientToken {
			return DenyAndLogout(http.StatusUnauthorized, "session_superseded")
		}

		if !sessions.ValidateSession(clientToken, userID) {
			return DenyAndLogout(http.StatusUnauthorized, "session_expired")
		}

		c.Set("currentUser", user)
		c.Set("sessionToken", clientToken)
		return Allow()
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
