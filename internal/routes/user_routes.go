package routes

import (
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/controllers"
	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes wires the authenticated account endpoints.
func RegisterUserRoutes(group *gin.RouterGroup, auth *controllers.AuthController, password *controllers.PasswordController, audit *controllers.AuditController) {
	group.GET("", auth.Profile)

	group.POST("/password", password.Change)

	group.POST("/2fa/enable", auth.EnableSecondFactor)
	group.POST("/2fa/confirm", auth.ConfirmSecondFactor)
	group.POST("/2fa/disable", auth.DisableSecondFactor)

	group.GET("/audit", audit.MyEvents)
}
