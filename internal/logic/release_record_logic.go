package logic

import (
	"fmt"

	"github.com/blues/mes/internal/model"
	"gorm.io/gorm"
)

// ReleaseRecordLogic 放款记录业务逻辑
type ReleaseRecordLogic struct {
	db *gorm.DB
}

// NewReleaseRecordLogic 创建放款记录业务逻辑
func NewReleaseRecordLogic(db *gorm.DB) *ReleaseRecordLogic {
	return &ReleaseRecordLogic{db: db}
}

// GetProjectReleases 获取项目的放款记录
func (r *ReleaseRecordLogic) GetProjectReleases(projectId int64, page, pageSize int) ([]model.ReleaseRecordModel, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.Model(&model.ReleaseRecordModel{}).Where("project_id = ?", projectId)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取放款记录总数失败: %w", err)
	}

	var records []model.ReleaseRecordModel
	err := query.Order("milestone ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("获取放款记录失败: %w", err)
	}

	return records, total, nil
}

// GetReleaseStats 获取项目的放款统计
func (r *ReleaseRecordLogic) GetReleaseStats(projectId int64) (map[string]interface{}, error) {
	var stats struct {
		ReleaseCount int64
		TotalAmount  int64
		TotalFee     int64
		TotalPayout  int64
	}

	err := r.db.Model(&model.ReleaseRecordModel{}).
		Select("COUNT(*) as release_count, COALESCE(SUM(amount), 0) as total_amount, COALESCE(SUM(fee), 0) as total_fee, COALESCE(SUM(payout), 0) as total_payout").
		Where("project_id = ?", projectId).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("获取放款统计失败: %w", err)
	}

	return map[string]interface{}{
		"project_id":    projectId,
		"release_count": stats.ReleaseCount,
		"total_amount":  stats.TotalAmount,
		"total_fee":     stats.TotalFee,
		"total_payout":  stats.TotalPayout,
	}, nil
}
