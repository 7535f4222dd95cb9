package model

import (
	"time"
)

// MilestoneModel 里程碑模型
// 每个项目固定4条记录，编号1-4，各占总额的四分之一
// funded/complete/released 三个标志只能 false→true
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64 `json:"project_id" gorm:"not null;index;uniqueIndex:idx_project_milestone,priority:1"`
	Number    int   `json:"number" gorm:"not null;uniqueIndex:idx_project_milestone,priority:2"` // 1-4

	// 金额（最小单位），四个里程碑之和精确等于项目总额
	Amount int64 `json:"amount" gorm:"not null"`

	// 创建时由客户填写
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`
	Attachment  string `json:"attachment"`

	// 生命周期标志
	Funded   bool `json:"funded" gorm:"default:false"`
	Complete bool `json:"complete" gorm:"default:false"`
	Released bool `json:"released" gorm:"default:false"`

	// 完成时由自由职业者提交，落库后不可修改
	CompletionDescription string `json:"completion_description" gorm:"type:text"`
	CompletionAttachment  string `json:"completion_attachment"`
}

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "escrow_milestone"
}
