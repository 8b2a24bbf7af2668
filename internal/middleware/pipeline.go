package middleware

import (
	"net/http"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/config"
	"github.com/gin-gonic/gin"
)

// GuardResult is one guard's verdict on the current request.
type GuardResult struct {
	Allowed bool
	Status  int
	Reason  string
	// ForceLogout clears both the auth and session cookies on denial so
	// the client cannot replay the same credentials.
	ForceLogout bool
}

func Allow() GuardResult {
	return GuardResult{Allowed: true}
}

func Deny(status int, reason string) GuardResult {
	return GuardResult{Status: status, Reason: reason}
}

func DenyAndLogout(status int, reason string) GuardResult {
	return GuardResult{Status: status, Reason: reason, ForceLogout: true}
}

// Guard is one per-request check in the validation pipeline.
type Guard func(c *gin.Context) GuardResult

// Chain runs guards in order and stops at the first denial. Each guard
// owns exactly one concern so new checks slot in without touching the
// existing ones.
func Chain(cfg *config.Config, guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, guard := range guards {
			result := guard(c)
			if result.Allowed {
				continue
			}

			if result.ForceLogout {
				clearAuthCookies(c, cfg)
			}

			message := "Forbidden"
			if result.Status == http.StatusUnauthorized {
				message = "Unauthorized"
			}
			c.JSON(result.Status, gin.H{"error": message, "reason": result.Reason})
			c.Abort()
			return
		}

		c.Next()
	}
}

func clearAuthCookies(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cfg.JWT.CookieName, "", -1, "/", cfg.JWT.CookieDomain, cfg.JWT.CookieSecure, true)
	c.SetCookie(cfg.Session.CookieName, "", -1, "/", cfg.JWT.CookieDomain, cfg.JWT.CookieSecure, true)
}
