package model

import (
	"time"
)

// ReleaseRecordModel 放款记录
// 每次里程碑放款确认后写入一条，金额、手续费、到账均为最小单位整数
type ReleaseRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64 `json:"project_id" gorm:"not null;index"`
	Milestone int   `json:"milestone" gorm:"not null"` // 1-4

	Amount int64 `json:"amount" gorm:"not null"` // 里程碑金额
	Fee    int64 `json:"fee" gorm:"not null"`    // 平台手续费（5%向下取整）
	Payout int64 `json:"payout" gorm:"not null"` // 自由职业者实际到账

	FreelancerAddress string `json:"freelancer_address" gorm:"not null"`
	TxHash            string `json:"tx_hash" gorm:"not null"`
	BlockNum          int64  `json:"block_num" gorm:"not null"`
}

// TableName 自定义表名
func (ReleaseRecordModel) TableName() string {
	return "release_record"
}
