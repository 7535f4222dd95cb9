package monitor

import (
	"errors"
	"fmt"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"gorm.io/gorm"
)

// MilestoneCompletedProcessor 里程碑完成事件处理器
// complete 标志只在此处 false→true，重复事件是无操作
type MilestoneCompletedProcessor struct {
	db *gorm.DB
}

// NewMilestoneCompletedProcessor 创建里程碑完成事件处理器
func NewMilestoneCompletedProcessor(db *gorm.DB) *MilestoneCompletedProcessor {
	return &MilestoneCompletedProcessor{db: db}
}

// EventName 事件名称
func (p *MilestoneCompletedProcessor) EventName() string {
	return "MilestoneCompleted"
}

// Process 处理里程碑完成事件
func (p *MilestoneCompletedProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	onChainId, ok := eventData["projectId"].(int64)
	if !ok {
		return fmt.Errorf("MilestoneCompleted event missing projectId")
	}
	number, ok := eventData["milestone"].(int)
	if !ok {
		return fmt.Errorf("MilestoneCompleted event missing milestone")
	}
	if err := escrow.ValidateMilestoneNumber(number); err != nil {
		logger.Warn("MilestoneCompleted event with invalid milestone %d for on-chain project %d", number, onChainId)
		return nil
	}

	project, milestone, err := findMilestone(p.db, onChainId, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("No mirror record for on-chain project %d", onChainId)
			return nil
		}
		return err
	}

	// 标志单调：已完成则无操作
	if milestone.Complete {
		logger.Debug("Milestone %d of project %d already complete", number, project.Id)
		return nil
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"complete": true,
		}

		// 从提交记录取出暂存的交付元数据，只在此转移时写入
		var submission model.SubmissionModel
		err := tx.Where("tx_hash = ?", event.TxHash).First(&submission).Error
		if err == nil {
			updates["completion_description"] = submission.CompletionDescription
			updates["completion_attachment"] = submission.CompletionAttachment
			if err := tx.Model(&submission).
				Update("status", model.SubmissionConfirmed).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(milestone).Updates(updates).Error; err != nil {
			return err
		}

		// 出现已完成待放款的里程碑，项目进入审核中
		if err := tx.Model(project).
			Update("status", escrow.StatusUnderReview).Error; err != nil {
			return err
		}

		logger.Info("Milestone %d of project %d marked complete", number, project.Id)
		return nil
	})
}

// findMilestone 按链上ID定位项目与里程碑
func findMilestone(db *gorm.DB, onChainId int64, number int) (*model.ProjectModel, *model.MilestoneModel, error) {
	var project model.ProjectModel
	if err := db.Where("on_chain_id = ?", onChainId).First(&project).Error; err != nil {
		return nil, nil, err
	}

	var milestone model.MilestoneModel
	if err := db.Where("project_id = ? AND number = ?", project.Id, number).
		First(&milestone).Error; err != nil {
		return nil, nil, err
	}

	return &project, &milestone, nil
}
