package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// TxBroadcaster 交易广播接口
// 由 chain.Broadcaster 实现，测试时可替换
type TxBroadcaster interface {
	BroadcastRaw(ctx context.Context, rawTx string) (common.Hash, error)
	// BroadcastTokenTransfer 额外校验转账目标是配置的WBTC合约
	BroadcastTokenTransfer(ctx context.Context, rawTx string) (common.Hash, error)
}

// ProjectLogic 托管项目业务逻辑
type ProjectLogic struct {
	db          *gorm.DB
	broadcaster TxBroadcaster
}

// NewProjectLogic 创建托管项目业务逻辑
func NewProjectLogic(db *gorm.DB, broadcaster TxBroadcaster) *ProjectLogic {
	return &ProjectLogic{db: db, broadcaster: broadcaster}
}

// MilestoneInput 创建时的里程碑元数据（客户填写）
type MilestoneInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Attachment  string `json:"attachment"`
}

// CreateProjectInput 创建托管项目参数
type CreateProjectInput struct {
	ClientAddress     string
	FreelancerAddress string
	TotalAmount       int64
	TokenType         string
	Description       string
	Category          string
	Subcategory       string
	Milestones        [escrow.MilestoneCount]MilestoneInput

	// 钱包签名的创建交易；WBTC路径还需先行的代币转账交易
	SignedTx         string
	SignedTransferTx string

	// 用户关闭钱包弹窗
	Cancelled bool
}

// CreateOutcome 创建结果
// 钱包取消是明确的结果值而非错误，且取消时不落任何记录
type CreateOutcome struct {
	Cancelled bool                `json:"cancelled"`
	Project   *model.ProjectModel `json:"project,omitempty"`
}

// CreateProject 创建托管项目
// 校验全部在链上调用之前同步完成；记录以pending状态落库，
// 链上ID在创建事件确认后由事件处理器回填
func (p *ProjectLogic) CreateProject(ctx context.Context, input CreateProjectInput) (*CreateOutcome, error) {
	if input.Cancelled {
		return &CreateOutcome{Cancelled: true}, nil
	}

	token, err := escrow.ParseTokenType(input.TokenType)
	if err != nil {
		return nil, err
	}

	// 参数校验
	if err := escrow.ValidateCreate(input.ClientAddress, input.FreelancerAddress, input.TotalAmount, token); err != nil {
		return nil, err
	}

	// 拆分里程碑金额
	amounts, err := escrow.SplitAmounts(input.TotalAmount)
	if err != nil {
		return nil, err
	}

	// WBTC路径先广播代币转账，再广播创建调用（两步链上操作）
	if token == escrow.TokenWBTC {
		if input.SignedTransferTx == "" {
			return nil, fmt.Errorf("wbtc escrow requires a signed token transfer transaction")
		}
		if _, err := p.broadcaster.BroadcastTokenTransfer(ctx, input.SignedTransferTx); err != nil {
			return nil, err
		}
	}

	txHash, err := p.broadcaster.BroadcastRaw(ctx, input.SignedTx)
	if err != nil {
		return nil, err
	}

	project := &model.ProjectModel{
		ClientAddress:     input.ClientAddress,
		FreelancerAddress: input.FreelancerAddress,
		TotalAmount:       input.TotalAmount,
		TokenType:         token,
		Status:            escrow.StatusPending,
		Description:       input.Description,
		Category:          input.Category,
		Subcategory:       input.Subcategory,
		TxHash:            txHash.Hex(),
	}

	// 项目、4条里程碑与提交记录在同一事务内落库
	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		for i := 0; i < escrow.MilestoneCount; i++ {
			milestone := &model.MilestoneModel{
				ProjectId:   project.Id,
				Number:      i + 1,
				Amount:      amounts[i],
				Title:       input.Milestones[i].Title,
				Description: input.Milestones[i].Description,
				Attachment:  input.Milestones[i].Attachment,
			}
			if err := tx.Create(milestone).Error; err != nil {
				return err
			}
			project.Milestones = append(project.Milestones, *milestone)
		}

		submission := &model.SubmissionModel{
			ProjectId: project.Id,
			Action:    model.ActionCreate,
			TxHash:    txHash.Hex(),
		}
		return tx.Create(submission).Error
	})
	if err != nil {
		return nil, fmt.Errorf("创建托管项目失败: %w", err)
	}

	return &CreateOutcome{Project: project}, nil
}

// GetProject 获取项目详情（含4条里程碑，按编号排序）
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	err := p.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, escrow.ErrProjectNotFound
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// GetProjects 获取项目列表
// 支持按客户地址、自由职业者地址、状态筛选
func (p *ProjectLogic) GetProjects(client, freelancer, status string, page, pageSize int) ([]model.ProjectModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := p.db.Model(&model.ProjectModel{})
	if client != "" {
		query = query.Where("client_address = ?", client)
	}
	if freelancer != "" {
		query = query.Where("freelancer_address = ?", freelancer)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目总数失败: %w", err)
	}

	var projects []model.ProjectModel
	err := query.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, total, nil
}

// GetProjectStats 获取单个项目的统计信息
func (p *ProjectLogic) GetProjectStats(id int64) (map[string]interface{}, error) {
	project, err := p.GetProject(id)
	if err != nil {
		return nil, err
	}

	var fundedCount, completeCount, releasedCount int
	var releasedAmount int64
	for _, m := range project.Milestones {
		if m.Funded {
			fundedCount++
		}
		if m.Complete {
			completeCount++
		}
		if m.Released {
			releasedCount++
			releasedAmount += m.Amount
		}
	}

	return map[string]interface{}{
		"project_id":      project.Id,
		"status":          project.Status,
		"token_type":      project.TokenType,
		"total_amount":    project.TotalAmount,
		"funded_count":    fundedCount,
		"complete_count":  completeCount,
		"released_count":  releasedCount,
		"released_amount": releasedAmount,
		"is_completed":    project.IsCompleted(),
	}, nil
}

// GetAllProjectStats 获取全部项目的统计信息
func (p *ProjectLogic) GetAllProjectStats() (map[string]interface{}, error) {
	var totalProjects int64
	p.db.Model(&model.ProjectModel{}).Count(&totalProjects)

	counts := make(map[escrow.Status]int64)
	for _, status := range []escrow.Status{
		escrow.StatusPending,
		escrow.StatusActive,
		escrow.StatusUnderReview,
		escrow.StatusCompleted,
	} {
		var count int64
		p.db.Model(&model.ProjectModel{}).
			Where("status = ?", status).
			Count(&count)
		counts[status] = count
	}

	// 统计累计托管总额与累计放款
	var totalEscrowed int64
	p.db.Model(&model.ProjectModel{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalEscrowed)

	var totalReleased int64
	p.db.Model(&model.ReleaseRecordModel{}).
		Select("COALESCE(SUM(payout), 0)").
		Scan(&totalReleased)

	var totalFees int64
	p.db.Model(&model.ReleaseRecordModel{}).
		Select("COALESCE(SUM(fee), 0)").
		Scan(&totalFees)

	return map[string]interface{}{
		"totalProjects":       totalProjects,
		"pendingProjects":     counts[escrow.StatusPending],
		"activeProjects":      counts[escrow.StatusActive],
		"underReviewProjects": counts[escrow.StatusUnderReview],
		"completedProjects":   counts[escrow.StatusCompleted],
		"totalEscrowed":       fmt.Sprintf("%d", totalEscrowed),
		"totalReleased":       fmt.Sprintf("%d", totalReleased),
		"totalFees":           fmt.Sprintf("%d", totalFees),
	}, nil
}
