package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/blues/mes/internal/config"
	"github.com/blues/mes/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Manager 链管理器
// 持有链客户端与托管合约实例
type Manager struct {
	mu     sync.RWMutex
	client *ethclient.Client // 链客户端
	escrow *EscrowContract   // 托管合约
	config config.ChainConfig
}

// NewManager 创建链管理器
func NewManager(cfg config.ChainConfig) (*Manager, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	logger.Info("Creating chain client connection (RPC: %s, chain id: %d)", cfg.RpcUrl, cfg.ChainId)
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	// 测试连接
	if _, err := client.BlockNumber(context.TODO()); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed: %w", err)
	}

	// 初始化托管合约
	escrow, err := NewEscrowContract(cfg.Escrow, cfg.ChainId)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize escrow contract: %w", err)
	}

	logger.Info("Successfully initialized escrow contract at %s", escrow.GetAddress().Hex())

	return &Manager{
		client: client,
		escrow: escrow,
		config: cfg,
	}, nil
}

// GetClient 获取链客户端
func (m *Manager) GetClient() *ethclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetEscrow 获取托管合约
func (m *Manager) GetEscrow() *EscrowContract {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.escrow
}

// GetConfig 获取链配置
func (m *Manager) GetConfig() config.ChainConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// CurrentBlockNumber 获取当前最新区块号
func (m *Manager) CurrentBlockNumber(ctx context.Context) (int64, error) {
	header, err := m.GetClient().HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Int64(), nil
}

// FilterEscrowLogs 获取托管合约在指定区块范围内的日志
func (m *Manager) FilterEscrowLogs(ctx context.Context, fromBlock, toBlock int64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: []common.Address{m.GetEscrow().GetAddress()},
	}

	return m.GetClient().FilterLogs(ctx, query)
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
		"escrow": map[string]interface{}{
			"address":   m.escrow.GetAddress().Hex(),
			"block_num": m.escrow.GetBlockNum(),
		},
	}

	// 检查客户端连接状态
	if m.client != nil {
		if _, err := m.client.BlockNumber(context.TODO()); err != nil {
			health["client_status"] = "disconnected"
		}
	} else {
		health["client_status"] = "not_initialized"
	}

	return health
}

// Close 关闭管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
	}

	logger.Info("Chain manager closed")
	return nil
}
