package router

import (
	"github.com/blues/mes/internal/handler"
	"github.com/blues/mes/internal/logic"
	"github.com/blues/mes/internal/monitor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, broadcaster logic.TxBroadcaster, eventMonitor *monitor.EventMonitor) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(requestIdMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "milestone-escrow-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 项目相关路由
		projectHandler := handler.NewProjectHandler(db, broadcaster)
		milestoneHandler := handler.NewMilestoneHandler(db, broadcaster)
		releaseHandler := handler.NewReleaseRecordHandler(db)

		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
			projects.GET("/:id/milestones", milestoneHandler.GetMilestones)
			projects.POST("/:id/milestones/:num/complete", milestoneHandler.CompleteMilestone)
			projects.POST("/:id/milestones/:num/release", milestoneHandler.ReleaseMilestone)
			projects.GET("/:id/releases", releaseHandler.GetProjectReleases)
			projects.GET("/:id/releases/stats", releaseHandler.GetReleaseStats)
		}

		v1.GET("/stats", projectHandler.GetAllProjectStats)

		// 监控状态
		if eventMonitor != nil {
			v1.GET("/monitor/status", func(c *gin.Context) {
				c.JSON(200, eventMonitor.GetStatus())
			})
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Wallet-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// 请求ID中间件
func requestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader("X-Request-Id")
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Set("request_id", requestId)
		c.Header("X-Request-Id", requestId)

		c.Next()
	}
}
