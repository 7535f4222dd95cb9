package monitor

import (
	"errors"
	"fmt"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"gorm.io/gorm"
)

// ProjectCreatedProcessor 项目创建事件处理器
// 创建交易确认后建立链上ID与链下记录的映射，
// 项目进入active状态，四条里程碑随创建原子注资
type ProjectCreatedProcessor struct {
	db *gorm.DB
}

// NewProjectCreatedProcessor 创建项目创建事件处理器
func NewProjectCreatedProcessor(db *gorm.DB) *ProjectCreatedProcessor {
	return &ProjectCreatedProcessor{db: db}
}

// EventName 事件名称
func (p *ProjectCreatedProcessor) EventName() string {
	return "ProjectCreated"
}

// Process 处理项目创建事件
func (p *ProjectCreatedProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	onChainId, ok := eventData["projectId"].(int64)
	if !ok {
		return fmt.Errorf("ProjectCreated event missing projectId")
	}

	// 通过创建交易哈希定位链下记录
	var project model.ProjectModel
	err := p.db.Where("tx_hash = ?", event.TxHash).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("No mirror record for creation tx %s (on-chain id %d)", event.TxHash, onChainId)
			return nil
		}
		return err
	}

	// 映射只建立一次
	if project.OnChainId != nil {
		logger.Debug("Project %d already mapped to on-chain id %d", project.Id, *project.OnChainId)
		return nil
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"on_chain_id": onChainId,
			"status":      escrow.StatusActive,
		}
		if err := tx.Model(&project).Updates(updates).Error; err != nil {
			return err
		}

		// 全部里程碑随创建原子注资
		if err := tx.Model(&model.MilestoneModel{}).
			Where("project_id = ?", project.Id).
			Update("funded", true).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.SubmissionModel{}).
			Where("tx_hash = ?", event.TxHash).
			Update("status", model.SubmissionConfirmed).Error; err != nil {
			return err
		}

		logger.Info("Project %d confirmed on-chain with id %d", project.Id, onChainId)
		return nil
	})
}
