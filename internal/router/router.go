package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusblock/internal/handler"
	"focusblock/internal/middleware"
	"focusblock/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	catalogHandler *handler.CatalogHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))

	sessions := authed.Group("/sessions")
	sessions.POST("", sessionHandler.Start)
	sessions.GET("", sessionHandler.History)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.POST("/:id/pause", sessionHandler.Pause)
	sessions.POST("/:id/resume", sessionHandler.Resume)
	sessions.POST("/:id/cancel", sessionHandler.Cancel)
	sessions.POST("/:id/complete", sessionHandler.Complete)

	authed.GET("/departments", catalogHandler.ListDepartments)
	authed.POST("/departments", catalogHandler.CreateDepartment)
	authed.GET("/projects", catalogHandler.ListProjects)
	authed.POST("/projects", catalogHandler.CreateProject)

	return engine
}
