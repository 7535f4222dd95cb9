package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/model"
	"gorm.io/gorm"
)

// MilestoneLogic 里程碑业务逻辑
// 镜像不做角色鉴权（链层是权威），只做参数与状态前置校验，
// 标志位转移由事件处理器在链上确认后落账
type MilestoneLogic struct {
	db          *gorm.DB
	broadcaster TxBroadcaster
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB, broadcaster TxBroadcaster) *MilestoneLogic {
	return &MilestoneLogic{db: db, broadcaster: broadcaster}
}

// CompleteMilestoneInput 标记里程碑完成参数
type CompleteMilestoneInput struct {
	// 自由职业者提交的交付说明与附件，事件确认时写入里程碑
	CompletionDescription string
	CompletionAttachment  string

	SignedTx  string
	Cancelled bool
}

// ReleaseMilestoneInput 里程碑放款参数
type ReleaseMilestoneInput struct {
	SignedTx  string
	Cancelled bool
}

// ActionOutcome 里程碑操作结果
type ActionOutcome struct {
	Cancelled bool   `json:"cancelled"`
	TxHash    string `json:"tx_hash,omitempty"`
	NoOp      bool   `json:"no_op,omitempty"`
}

// CompleteMilestone 标记里程碑完成（自由职业者操作）
// 已完成的里程碑重复提交是幂等的无操作
func (m *MilestoneLogic) CompleteMilestone(ctx context.Context, projectId int64, number int, input CompleteMilestoneInput) (*ActionOutcome, error) {
	if err := escrow.ValidateMilestoneNumber(number); err != nil {
		return nil, err
	}

	if input.Cancelled {
		return &ActionOutcome{Cancelled: true}, nil
	}

	milestone, err := m.getMilestone(projectId, number)
	if err != nil {
		return nil, err
	}

	// 已完成则幂等返回，不再上链
	if milestone.Complete {
		return &ActionOutcome{NoOp: true}, nil
	}

	txHash, err := m.broadcaster.BroadcastRaw(ctx, input.SignedTx)
	if err != nil {
		return nil, err
	}

	submission := &model.SubmissionModel{
		ProjectId:             projectId,
		Action:                model.ActionComplete,
		Milestone:             number,
		TxHash:                txHash.Hex(),
		CompletionDescription: input.CompletionDescription,
		CompletionAttachment:  input.CompletionAttachment,
	}
	if err := m.db.Create(submission).Error; err != nil {
		return nil, fmt.Errorf("创建完成提交记录失败: %w", err)
	}

	return &ActionOutcome{TxHash: txHash.Hex()}, nil
}

// ReleaseMilestone 里程碑放款（客户操作）
// 守护金额随提交记录保存，放款事件确认时逐位核对
func (m *MilestoneLogic) ReleaseMilestone(ctx context.Context, projectId int64, number int, input ReleaseMilestoneInput) (*ActionOutcome, error) {
	if err := escrow.ValidateMilestoneNumber(number); err != nil {
		return nil, err
	}

	if input.Cancelled {
		return &ActionOutcome{Cancelled: true}, nil
	}

	var project model.ProjectModel
	if err := m.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, escrow.ErrProjectNotFound
		}
		return nil, err
	}

	milestone, err := m.getMilestone(projectId, number)
	if err != nil {
		return nil, err
	}

	if milestone.Released {
		return nil, escrow.ErrAlreadyReleased
	}

	guard := escrow.GuardAmount(project.TokenType, milestone.Amount)

	txHash, err := m.broadcaster.BroadcastRaw(ctx, input.SignedTx)
	if err != nil {
		return nil, err
	}

	submission := &model.SubmissionModel{
		ProjectId:   projectId,
		Action:      model.ActionRelease,
		Milestone:   number,
		TxHash:      txHash.Hex(),
		GuardAmount: guard,
	}
	if err := m.db.Create(submission).Error; err != nil {
		return nil, fmt.Errorf("创建放款提交记录失败: %w", err)
	}

	return &ActionOutcome{TxHash: txHash.Hex()}, nil
}

// GetMilestones 获取项目的4条里程碑
func (m *MilestoneLogic) GetMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	err := m.db.Where("project_id = ?", projectId).
		Order("number ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("获取里程碑失败: %w", err)
	}
	if len(milestones) == 0 {
		return nil, escrow.ErrProjectNotFound
	}

	return milestones, nil
}

// getMilestone 获取指定里程碑
func (m *MilestoneLogic) getMilestone(projectId int64, number int) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	err := m.db.Where("project_id = ? AND number = ?", projectId, number).
		First(&milestone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, escrow.ErrProjectNotFound
		}
		return nil, err
	}

	return &milestone, nil
}
