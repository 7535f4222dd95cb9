package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blues/mes/internal/chain"
	"github.com/blues/mes/internal/logger"
	"github.com/blues/mes/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// ChainSource 监控器依赖的链访问接口
// 由 chain.Manager 实现，测试时可替换
type ChainSource interface {
	CurrentBlockNumber(ctx context.Context) (int64, error)
	FilterEscrowLogs(ctx context.Context, fromBlock, toBlock int64) ([]types.Log, error)
	GetEscrow() *chain.EscrowContract
	GetHealthStatus() map[string]interface{}
}

// EventMonitor 托管合约事件监控器
// 周期性扫描托管合约日志并交给处理器落账，是镜像状态的唯一驱动源
type EventMonitor struct {
	chainManager     ChainSource
	db               *gorm.DB
	processorManager *ProcessorManager
	startBlockNum    int64
	ctx              context.Context
	cancel           context.CancelFunc
	mu               sync.RWMutex // 保护 startBlockNum 的并发访问
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(chainManager ChainSource, db *gorm.DB) *EventMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventMonitor{
		chainManager:     chainManager,
		db:               db,
		processorManager: NewProcessorManager(db),
		startBlockNum:    0,
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Start 启动监控
func (m *EventMonitor) Start() error {
	logger.Info("Starting escrow event monitor")

	// 检查 RPC 连接
	currentBlock, err := m.chainManager.CurrentBlockNumber(m.ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to blockchain: %w", err)
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	// 确定起始区块号
	startBlock := m.resolveStartBlock()
	m.mu.Lock()
	m.startBlockNum = startBlock
	m.mu.Unlock()

	logger.Info("Starting monitor from block %d", startBlock)

	go m.loop()

	return nil
}

// Stop 停止监控
func (m *EventMonitor) Stop() {
	logger.Info("Stopping escrow event monitor")
	m.cancel()
}

// loop 监控循环
func (m *EventMonitor) loop() {
	ticker := time.NewTicker(time.Second * 30)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.chainManager.CurrentBlockNumber(m.ctx)
			if err != nil {
				logger.Error("Failed to get current block number: %v", err)
				continue
			}

			m.mu.RLock()
			fromBlock := m.startBlockNum
			m.mu.RUnlock()

			if fromBlock > currentBlock {
				continue
			}

			if err := m.processBlocksInBatches(fromBlock, currentBlock); err != nil {
				logger.Error("Error processing blocks: %v", err)
			}
		}
	}
}

// processBlocksInBatches 分批处理区块
func (m *EventMonitor) processBlocksInBatches(fromBlock, toBlock int64) error {
	batchSize := int64(500) // 控制批量大小，避免RPC限制

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		logger.Debug("Processing batch blocks %d to %d", currentFrom, currentTo)
		if err := m.processBatchBlocks(currentFrom, currentTo); err != nil {
			if isAPIRateLimitError(err) {
				logger.Error("API rate limit hit while processing blocks %d-%d: %v", currentFrom, currentTo, err)
			} else {
				logger.Error("Error processing blocks %d-%d: %v", currentFrom, currentTo, err)
			}
			// 中止本轮扫描：游标停在失败窗口起点，下一轮从这里重试，
			// 不会越过失败窗口丢失其中的日志
			return err
		}

		// 更新起始区块号
		m.updateStartBlockNum(currentTo + 1)

		time.Sleep(time.Millisecond * 500)
	}

	return nil
}

// processBatchBlocks 批量处理区块
func (m *EventMonitor) processBatchBlocks(fromBlock, toBlock int64) error {
	logs, err := m.chainManager.FilterEscrowLogs(m.ctx, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("error getting logs for blocks %d-%d: %w", fromBlock, toBlock, err)
	}

	if len(logs) == 0 {
		logger.Debug("No logs found for blocks %d-%d", fromBlock, toBlock)
		return nil
	}

	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	// 按项目分组：组间并发，组内保持日志顺序，
	// 保证同一项目的完成事件先于放款事件落账
	logsByProject := groupLogsByProject(logs)
	groupCount := len(logsByProject)
	if groupCount == 0 {
		return nil
	}

	pool, err := ants.NewPool(groupCount)
	if err != nil {
		return fmt.Errorf("failed to create pool for %d groups: %w", groupCount, err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, projectLogs := range logsByProject {
		projectLogs := projectLogs
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			m.processProjectLogs(projectLogs)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// processProjectLogs 按顺序处理单个项目的日志
func (m *EventMonitor) processProjectLogs(logs []types.Log) {
	escrowContract := m.chainManager.GetEscrow()

	for _, log := range logs {
		// 同一日志只处理一次
		if m.isLogProcessed(log) {
			continue
		}

		eventData, err := escrowContract.ParseEvent(log)
		if err != nil {
			logger.Error("Error parsing escrow event: %v", err)
			continue
		}

		eventDataJSON, err := json.Marshal(eventData)
		if err != nil {
			logger.Error("Failed to marshal event data to JSON: %v", err)
			continue
		}

		event := &model.EventModel{
			ContractAddress: escrowContract.GetAddress().Hex(),
			EventName:       eventData["eventName"].(string),
			TxHash:          log.TxHash.Hex(),
			BlockNum:        int64(log.BlockNumber),
			LogIndex:        int64(log.Index),
			Data:            string(eventDataJSON),
		}

		if err := m.processorManager.ProcessEvent(event, eventData); err != nil {
			logger.Error("Error processing event %s: %v", event.EventName, err)
			continue
		}

		// 落账后记录事件，兼作扫描游标
		if err := m.db.Create(event).Error; err != nil {
			logger.Error("Failed to record event: %v", err)
		}

		logger.Debug("Processed %s event at block %d", event.EventName, log.BlockNumber)
	}
}

// resolveStartBlock 确定起始区块号
// 取合约部署区块与数据库已处理最大区块中的较大者
func (m *EventMonitor) resolveStartBlock() int64 {
	deployBlock := m.chainManager.GetEscrow().GetBlockNum()

	var maxProcessedBlock int64
	err := m.db.Model(&model.EventModel{}).
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&maxProcessedBlock).Error
	if err != nil {
		logger.Error("Failed to get max processed block number from database: %v", err)
		return deployBlock
	}

	if maxProcessedBlock > deployBlock {
		return maxProcessedBlock + 1
	}
	return deployBlock
}

// updateStartBlockNum 更新起始区块号
func (m *EventMonitor) updateStartBlockNum(blockNum int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startBlockNum = blockNum
}

// isLogProcessed 检查日志是否已处理
func (m *EventMonitor) isLogProcessed(log types.Log) bool {
	var count int64
	err := m.db.Model(&model.EventModel{}).
		Where("tx_hash = ? AND log_index = ?", log.TxHash.Hex(), int64(log.Index)).
		Count(&count).Error
	if err != nil {
		logger.Error("Error checking log %s/%d: %v", log.TxHash.Hex(), log.Index, err)
		return false
	}

	return count > 0
}

// GetStatus 获取监控状态
func (m *EventMonitor) GetStatus() map[string]interface{} {
	m.mu.RLock()
	startBlock := m.startBlockNum
	m.mu.RUnlock()

	return map[string]interface{}{
		"start_block": startBlock,
		"chain_info":  m.chainManager.GetHealthStatus(),
	}
}

// groupLogsByProject 按链上项目ID（全部事件的第一个索引参数）分组日志
func groupLogsByProject(logs []types.Log) map[common.Hash][]types.Log {
	logsByProject := make(map[common.Hash][]types.Log)

	for _, log := range logs {
		if len(log.Topics) < 2 {
			continue
		}
		key := log.Topics[1]
		logsByProject[key] = append(logsByProject[key], log)
	}

	return logsByProject
}

// isAPIRateLimitError 检查是否为API限制错误
func isAPIRateLimitError(err error) bool {
	return strings.Contains(err.Error(), "Too Many Requests")
}
