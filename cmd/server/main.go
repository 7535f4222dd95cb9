package main

import (
	"github.com/blues/mes/internal/chain"
	"github.com/blues/mes/internal/config"
	"github.com/blues/mes/internal/database"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/monitor"
	"github.com/blues/mes/internal/router"
	"github.com/blues/mes/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链管理器
	chainManager, err := chain.NewManager(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain manager: %v", err)
	}
	defer chainManager.Close()

	broadcaster := chain.NewBroadcaster(chainManager)

	// 启动事件监控
	eventMonitor := monitor.NewEventMonitor(chainManager, db)
	if err := eventMonitor.Start(); err != nil {
		logger.Fatal("Failed to start event monitor: %v", err)
	}
	defer eventMonitor.Stop()

	// 启动定时任务
	schedulerManager := scheduler.Start(db, broadcaster, cfg)
	defer schedulerManager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由并启动服务器
	r := router.Setup(db, broadcaster, eventMonitor)

	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
