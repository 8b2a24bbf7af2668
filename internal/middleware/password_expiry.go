package middleware

import (
	"net/http"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/services"
	"github.com/gin-gonic/gin"
)

// PasswordExpiryGuard blocks requests from accounts whose password aged
// out, except on the paths needed to fix that (change password, logout).
// Runs after SessionGuard, which put the loaded user in the context.
func PasswordExpiryGuard(policy *services.PasswordPolicyService, allowedPaths ...string) Guard {
	allowed := make(map[string]struct{}, len(allowedPaths))
	for _, p := range allowedPaths {
		allowed[p] = struct{}{}
	}

	return func(c *gin.Context) GuardResult {
		if _, ok := allowed[c.FullPath()]; ok {
			return Allow()
		}

		value, exists := c.Get("currentUser")
		if !exists {
			return Allow()
		}
		user, ok := value.(*models.User)
		if !ok {
			return Allow()
		}

		if policy.IsExpired(user, time.Now().UTC()) {
			return Deny(http.StatusForbidden, "password_expired")
		}

		return Allow()
	}
}
