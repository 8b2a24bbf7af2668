package routes

import (
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/controllers"
	"github.com/gin-gonic/gin"
)

// Controllers bundles everything SetupRoutes wires up.
type Controllers struct {
	Auth     *controllers.AuthController
	Password *controllers.PasswordController
	Session  *controllers.SessionController
	Audit    *controllers.AuditController
}

// SetupRoutes registers all application routes.
func SetupRoutes(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware gin.HandlerFunc,
	sessionPipeline gin.HandlerFunc,
) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/")

	// Auth routes: /auth/* (no session required)
	authGroup := api.Group("/auth")
	RegisterAuthRoutes(authGroup, ctrl.Auth, ctrl.Password)

	// Anonymous strength preview for the registration form meter.
	api.GET("/password/strength", ctrl.Password.Strength)

	// User routes: /user/* (full session pipeline)
	userGroup := api.Group("/user")
	userGroup.Use(authMiddleware, sessionPipeline)
	RegisterUserRoutes(userGroup, ctrl.Auth, ctrl.Password, ctrl.Audit)

	// Session routes: /sessions/*
	sessionGroup := api.Group("/sessions")
	sessionGroup.Use(authMiddleware, sessionPipeline)
	RegisterSessionRoutes(sessionGroup, ctrl.Session)

	// Logout needs auth context but must work even with a dead session,
	// so it sits behind the JWT middleware only.
	logoutGroup := api.Group("/auth")
	logoutGroup.Use(authMiddleware)
	logoutGroup.POST("/logout", ctrl.Auth.Logout)
}
