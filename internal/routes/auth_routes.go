package routes

import (
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/controllers"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes wires the unauthenticated auth endpoints.
func RegisterAuthRoutes(group *gin.RouterGroup, auth *controllers.AuthController, password *controllers.PasswordController) {
	group.POST("/register", auth.Register)
	group.POST("/login", auth.Login)
	group.POST("/login/code", auth.LoginWithCode)

	group.POST("/password/forgot", password.Forgot)
	group.GET("/password/reset/:rid", password.ResetInfo)
	group.POST("/password/reset/:rid", password.Reset)
}
