package model

import (
	"time"

	"github.com/blues/mes/internal/escrow"
)

// ProjectModel 托管项目模型
// 链下镜像记录，资金与授权的权威状态在托管合约上
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 双方地址
	ClientAddress     string `json:"client_address" gorm:"not null;index"`
	FreelancerAddress string `json:"freelancer_address" gorm:"not null;index"`

	// 托管金额（最小单位）与代币类型
	TotalAmount int64            `json:"total_amount" gorm:"not null"`
	TokenType   escrow.TokenType `json:"token_type" gorm:"not null;default:'native'"`

	// 状态
	Status escrow.Status `json:"status" gorm:"default:'pending'"`

	// 基本信息
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`

	// 区块链信息：链上ID在创建交易确认后才分配
	OnChainId *int64 `json:"on_chain_id" gorm:"index"`
	TxHash    string `json:"tx_hash" gorm:"index"`

	// 关联
	Milestones []MilestoneModel `json:"milestones,omitempty" gorm:"foreignKey:ProjectId"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "escrow_project"
}

// MilestoneFlags 提取四个里程碑的标志位，按编号排列
func (p *ProjectModel) MilestoneFlags() [escrow.MilestoneCount]escrow.MilestoneFlags {
	var flags [escrow.MilestoneCount]escrow.MilestoneFlags
	for _, m := range p.Milestones {
		if m.Number < 1 || m.Number > escrow.MilestoneCount {
			continue
		}
		flags[m.Number-1] = escrow.MilestoneFlags{
			Funded:   m.Funded,
			Complete: m.Complete,
			Released: m.Released,
		}
	}
	return flags
}

// IsCompleted 项目是否完成（读取时推导，不落库）
func (p *ProjectModel) IsCompleted() bool {
	return escrow.Completed(p.MilestoneFlags())
}
