package model

import (
	"time"
)

// EventModel 链上事件记录
// 同时作为事件监控器的扫描游标（最大block_num为下次起点）
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"not null"`
	EventName       string `json:"event_name" gorm:"not null;index"`
	TxHash          string `json:"tx_hash" gorm:"not null;index"`
	BlockNum        int64  `json:"block_num" gorm:"not null;index"`
	LogIndex        int64  `json:"log_index"`
	Data            string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "chain_event"
}
