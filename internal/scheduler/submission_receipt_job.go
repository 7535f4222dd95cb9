package scheduler

import (
	"context"
	"time"

	"github.com/blues/mes/internal/config"
	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ReceiptFetcher 回执查询接口
// 由 chain.Broadcaster 实现，测试时可替换
type ReceiptFetcher interface {
	GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	RevertReason(ctx context.Context, txHash common.Hash) (string, error)
}

// SubmissionReceiptJob 提交回执轮询任务
// 只负责识别链上被拒绝的提交：标记failed并记录拒绝原因，镜像不做任何变更；
// 成功确认的提交由事件监控器落账
type SubmissionReceiptJob struct {
	db      *gorm.DB
	config  *config.Config
	fetcher ReceiptFetcher
}

// NewSubmissionReceiptJob 创建提交回执轮询任务
func NewSubmissionReceiptJob(db *gorm.DB, cfg *config.Config, fetcher ReceiptFetcher) *SubmissionReceiptJob {
	return &SubmissionReceiptJob{
		db:      db,
		config:  cfg,
		fetcher: fetcher,
	}
}

// GetName 获取任务名称
func (j *SubmissionReceiptJob) GetName() string {
	return "submission_receipt_poller"
}

// GetSchedule 获取调度配置
func (j *SubmissionReceiptJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *SubmissionReceiptJob) Execute() {
	logger.Debug("Starting submission receipt poll")

	var submissions []model.SubmissionModel
	err := j.db.Where("status = ?", model.SubmissionPending).
		Find(&submissions).Error
	if err != nil {
		logger.Error("Failed to fetch pending submissions: %v", err)
		return
	}

	failedCount := 0
	ctx := context.Background()

	for _, submission := range submissions {
		txHash := common.HexToHash(submission.TxHash)

		receipt, err := j.fetcher.GetTransactionReceipt(ctx, txHash)
		if err != nil || receipt == nil {
			// 交易尚未上链，等待下一轮
			continue
		}

		if receipt.Status == ethtypes.ReceiptStatusSuccessful {
			// 成功交易由事件监控器落账并标记confirmed
			continue
		}

		// 链上拒绝：回放提取拒绝原因并映射为业务错误
		reason, reasonErr := j.fetcher.RevertReason(ctx, txHash)
		if reasonErr != nil {
			logger.Warn("Failed to extract revert reason for %s: %v", submission.TxHash, reasonErr)
		}
		mapped := escrow.MapRevertReason(reason)

		updates := map[string]interface{}{
			"status":      model.SubmissionFailed,
			"fail_reason": mapped.Error(),
		}
		if err := j.db.Model(&submission).Updates(updates).Error; err != nil {
			logger.Error("Failed to mark submission %d failed: %v", submission.Id, err)
			continue
		}

		logger.Info("Submission %d (%s milestone %d) rejected on-chain: %s",
			submission.Id, submission.Action, submission.Milestone, mapped.Error())
		failedCount++
	}

	if failedCount > 0 {
		logger.Info("Submission receipt poll completed. Marked %d submissions failed", failedCount)
	}
}
