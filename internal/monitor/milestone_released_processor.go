package monitor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"gorm.io/gorm"
)

// MilestoneReleasedProcessor 里程碑放款事件处理器
// 落账前核对金额守护条件：事件上报的资金流出必须与广播时计算的
// 期望值逐位一致，不一致则镜像保持不变并标记提交失败
type MilestoneReleasedProcessor struct {
	db *gorm.DB
}

// NewMilestoneReleasedProcessor 创建里程碑放款事件处理器
func NewMilestoneReleasedProcessor(db *gorm.DB) *MilestoneReleasedProcessor {
	return &MilestoneReleasedProcessor{db: db}
}

// EventName 事件名称
func (p *MilestoneReleasedProcessor) EventName() string {
	return "MilestoneReleased"
}

// Process 处理里程碑放款事件
func (p *MilestoneReleasedProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	onChainId, ok := eventData["projectId"].(int64)
	if !ok {
		return fmt.Errorf("MilestoneReleased event missing projectId")
	}
	number, ok := eventData["milestone"].(int)
	if !ok {
		return fmt.Errorf("MilestoneReleased event missing milestone")
	}
	if err := escrow.ValidateMilestoneNumber(number); err != nil {
		logger.Warn("MilestoneReleased event with invalid milestone %d for on-chain project %d", number, onChainId)
		return nil
	}

	payout, fee, err := releaseAmounts(eventData)
	if err != nil {
		return err
	}

	project, milestone, err := findMilestone(p.db, onChainId, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("No mirror record for on-chain project %d", onChainId)
			return nil
		}
		return err
	}

	// 重复事件是无操作
	if milestone.Released {
		logger.Debug("Milestone %d of project %d already released", number, project.Id)
		return nil
	}

	// 独立核对手续费拆分：fee = amount*500/10000 向下取整
	expectedFee, expectedPayout := escrow.ReleaseFee(milestone.Amount)
	if fee != expectedFee || payout != expectedPayout {
		logger.Error("Release amount mismatch for project %d milestone %d: got payout=%d fee=%d, expected payout=%d fee=%d",
			project.Id, number, payout, fee, expectedPayout, expectedFee)
		return p.failSubmission(event.TxHash, "release amounts do not match expected fee split")
	}

	// 核对广播时保存的守护金额
	var submission model.SubmissionModel
	hasSubmission := true
	if err := p.db.Where("tx_hash = ?", event.TxHash).First(&submission).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		hasSubmission = false
	}
	if hasSubmission && submission.GuardAmount != 0 {
		guard := escrow.GuardAmount(project.TokenType, milestone.Amount)
		moved := payout
		if project.TokenType == escrow.TokenWBTC {
			moved = payout + fee
		}
		if moved != guard || submission.GuardAmount != guard {
			logger.Error("Guard amount violated for project %d milestone %d: moved=%d guard=%d",
				project.Id, number, moved, submission.GuardAmount)
			return p.failSubmission(event.TxHash, "guard amount violated")
		}
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		// released 蕴含 complete，链上先完成后放款
		updates := map[string]interface{}{
			"complete": true,
			"released": true,
		}
		if err := tx.Model(milestone).Updates(updates).Error; err != nil {
			return err
		}

		record := &model.ReleaseRecordModel{
			ProjectId:         project.Id,
			Milestone:         number,
			Amount:            milestone.Amount,
			Fee:               fee,
			Payout:            payout,
			FreelancerAddress: project.FreelancerAddress,
			TxHash:            event.TxHash,
			BlockNum:          event.BlockNum,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		if hasSubmission {
			if err := tx.Model(&submission).
				Update("status", model.SubmissionConfirmed).Error; err != nil {
				return err
			}
		}

		// 根据放款后的标志位重新推导项目状态
		status, err := deriveProjectStatus(tx, project.Id)
		if err != nil {
			return err
		}
		if err := tx.Model(project).Update("status", status).Error; err != nil {
			return err
		}

		logger.Info("Milestone %d of project %d released: payout=%d fee=%d", number, project.Id, payout, fee)
		return nil
	})
}

// failSubmission 标记提交失败，镜像不做任何变更
func (p *MilestoneReleasedProcessor) failSubmission(txHash, reason string) error {
	return p.db.Model(&model.SubmissionModel{}).
		Where("tx_hash = ?", txHash).
		Updates(map[string]interface{}{
			"status":      model.SubmissionFailed,
			"fail_reason": reason,
		}).Error
}

// releaseAmounts 从事件数据中提取放款金额
func releaseAmounts(eventData map[string]interface{}) (payout, fee int64, err error) {
	payoutBig, ok := eventData["payout"].(*big.Int)
	if !ok {
		return 0, 0, fmt.Errorf("MilestoneReleased event missing payout")
	}
	feeBig, ok := eventData["fee"].(*big.Int)
	if !ok {
		return 0, 0, fmt.Errorf("MilestoneReleased event missing fee")
	}
	return payoutBig.Int64(), feeBig.Int64(), nil
}

// deriveProjectStatus 根据当前里程碑标志推导项目状态
func deriveProjectStatus(tx *gorm.DB, projectId int64) (escrow.Status, error) {
	var milestones []model.MilestoneModel
	if err := tx.Where("project_id = ?", projectId).
		Order("number ASC").
		Find(&milestones).Error; err != nil {
		return "", err
	}

	var flags [escrow.MilestoneCount]escrow.MilestoneFlags
	for _, m := range milestones {
		if m.Number < 1 || m.Number > escrow.MilestoneCount {
			continue
		}
		flags[m.Number-1] = escrow.MilestoneFlags{
			Funded:   m.Funded,
			Complete: m.Complete,
			Released: m.Released,
		}
	}

	return escrow.DeriveStatus(true, flags), nil
}
