package routes

import (
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/controllers"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes wires the session management endpoints.
func RegisterSessionRoutes(group *gin.RouterGroup, sessions *controllers.SessionController) {
	group.GET("", sessions.List)
	group.GET("/count", sessions.Count)
	group.POST("/extend", sessions.Extend)
	group.DELETE("/:id", sessions.Terminate)
	group.DELETE("", sessions.TerminateAll)
}
