package scheduler

import (
	"github.com/blues/mes/internal/chain"
	"github.com/blues/mes/internal/config"
	"github.com/blues/mes/internal/logger"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Job 定时任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 定时任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	config    *config.Config
}

// NewManager 创建定时任务管理器
func NewManager(db *gorm.DB, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		config:    cfg,
	}
}

// Start 启动全部定时任务
func Start(db *gorm.DB, broadcaster *chain.Broadcaster, cfg *config.Config) *Manager {
	manager := NewManager(db, cfg)

	// 注册所有任务
	manager.RegisterJob(NewSubmissionReceiptJob(db, cfg, broadcaster))
	manager.RegisterJob(NewProjectStatusJob(db, cfg))

	manager.scheduler.Start()
	logger.Info("Scheduler started")

	return manager
}

// RegisterJob 注册定时任务
func (m *Manager) RegisterJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return
	}
	logger.Info("Registered job: %s", job.GetName())
}

// Stop 停止定时任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Scheduler stopped")
}
