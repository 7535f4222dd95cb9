package model

import (
	"time"
)

// SubmissionModel 待确认的链上提交记录
// 端点只负责广播与暂存元数据，镜像标志位由事件确认后统一落账，
// 交易失败时提交记录标记为failed，镜像保持不变
type SubmissionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64            `json:"project_id" gorm:"not null;index"`
	Action    SubmissionAction `json:"action" gorm:"not null"`
	Milestone int              `json:"milestone"` // complete/release 时为1-4，create 时为0

	TxHash string `json:"tx_hash" gorm:"not null;uniqueIndex"`

	// 放款交易的金额守护条件，事件确认时逐位核对
	GuardAmount int64 `json:"guard_amount"`

	// 完成提交暂存的自由职业者元数据，事件确认时写入里程碑
	CompletionDescription string `json:"completion_description" gorm:"type:text"`
	CompletionAttachment  string `json:"completion_attachment"`

	Status     SubmissionStatus `json:"status" gorm:"default:'pending';index"`
	FailReason string           `json:"fail_reason"`
}

// SubmissionAction 提交动作类型
type SubmissionAction string

const (
	ActionCreate   SubmissionAction = "create"   // 创建托管项目
	ActionComplete SubmissionAction = "complete" // 标记里程碑完成
	ActionRelease  SubmissionAction = "release"  // 里程碑放款
)

// SubmissionStatus 提交状态
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"   // 已广播待确认
	SubmissionConfirmed SubmissionStatus = "confirmed" // 链上确认并已落账
	SubmissionFailed    SubmissionStatus = "failed"    // 链上拒绝，镜像未变更
)

// TableName 自定义表名
func (SubmissionModel) TableName() string {
	return "escrow_submission"
}
