package scheduler

import (
	"time"

	"github.com/blues/mes/internal/config"
	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ProjectStatusJob 项目状态对账任务
// 状态列只是列表查询的便利字段，权威来源是里程碑标志位；
// 此任务定期用标志位重新推导状态，修正任何漂移
type ProjectStatusJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewProjectStatusJob 创建项目状态对账任务
func NewProjectStatusJob(db *gorm.DB, cfg *config.Config) *ProjectStatusJob {
	return &ProjectStatusJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *ProjectStatusJob) GetName() string {
	return "project_status_reconciler"
}

// GetSchedule 获取调度配置
func (j *ProjectStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *ProjectStatusJob) Execute() {
	logger.Debug("Starting project status reconciliation")

	// 只对已确认上链的项目对账，pending项目等待创建事件
	var projects []model.ProjectModel
	err := j.db.Preload("Milestones").
		Where("status IN ?", []escrow.Status{
			escrow.StatusActive,
			escrow.StatusUnderReview,
		}).Find(&projects).Error
	if err != nil {
		logger.Error("Failed to fetch projects: %v", err)
		return
	}

	updatedCount := 0

	for _, project := range projects {
		derived := escrow.DeriveStatus(project.OnChainId != nil, project.MilestoneFlags())
		if derived == project.Status {
			continue
		}

		if err := j.db.Model(&project).Update("status", derived).Error; err != nil {
			logger.Error("Failed to update project %d status: %v", project.Id, err)
			continue
		}

		logger.Info("Reconciled project %d status from %s to %s", project.Id, project.Status, derived)
		updatedCount++
	}

	if updatedCount > 0 {
		logger.Info("Project status reconciliation completed. Updated %d projects", updatedCount)
	}
}
