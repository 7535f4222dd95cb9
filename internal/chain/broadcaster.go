package chain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/blues/mes/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Broadcaster 交易广播器
// 服务端不持有任何签名私钥：交易由用户钱包签名后以原始字节提交，
// 这里只负责广播、查询回执与确认深度
type Broadcaster struct {
	manager       *Manager
	confirmations int
	wbtcToken     common.Address // WBTC代币合约地址
	hasWBTCToken  bool
}

// NewBroadcaster 创建交易广播器
func NewBroadcaster(manager *Manager) *Broadcaster {
	cfg := manager.GetConfig()

	return &Broadcaster{
		manager:       manager,
		confirmations: cfg.Confirmations,
		wbtcToken:     common.HexToAddress(cfg.WBTCAddress),
		hasWBTCToken:  cfg.WBTCAddress != "",
	}
}

// BroadcastRaw 广播用户签名的原始交易
func (b *Broadcaster) BroadcastRaw(ctx context.Context, rawTx string) (common.Hash, error) {
	tx, err := decodeRawTx(rawTx)
	if err != nil {
		return common.Hash{}, err
	}

	return b.send(ctx, tx)
}

// BroadcastTokenTransfer 广播WBTC路径先行的代币转账交易
// 配置了代币合约地址时校验交易目标，拒绝打向其他合约的转账
func (b *Broadcaster) BroadcastTokenTransfer(ctx context.Context, rawTx string) (common.Hash, error) {
	tx, err := decodeRawTx(rawTx)
	if err != nil {
		return common.Hash{}, err
	}

	if err := b.checkTransferTarget(tx); err != nil {
		return common.Hash{}, err
	}

	return b.send(ctx, tx)
}

// checkTransferTarget 校验转账交易的目标地址
func (b *Broadcaster) checkTransferTarget(tx *types.Transaction) error {
	if !b.hasWBTCToken {
		return nil
	}
	if tx.To() == nil || *tx.To() != b.wbtcToken {
		return fmt.Errorf("token transfer target does not match the configured wbtc contract %s", b.wbtcToken.Hex())
	}
	return nil
}

// send 广播已解析的交易
func (b *Broadcaster) send(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := b.manager.GetClient().SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	logger.Info("Broadcasted transaction %s", tx.Hash().Hex())
	return tx.Hash(), nil
}

// decodeRawTx 解码十六进制的原始签名交易
func decodeRawTx(rawTx string) (*types.Transaction, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(rawTx, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode raw transaction: %w", err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to parse raw transaction: %w", err)
	}

	return tx, nil
}

// GetTransactionReceipt 获取交易回执
func (b *Broadcaster) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return b.manager.GetClient().TransactionReceipt(ctx, txHash)
}

// IsTransactionConfirmed 检查交易是否已达到确认深度
func (b *Broadcaster) IsTransactionConfirmed(ctx context.Context, txHash common.Hash) (bool, error) {
	receipt, err := b.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return false, err
	}
	if receipt == nil {
		return false, nil
	}

	latestBlock, err := b.manager.CurrentBlockNumber(ctx)
	if err != nil {
		return false, err
	}

	return latestBlock >= receipt.BlockNumber.Int64()+int64(b.confirmations), nil
}

// RevertReason 提取失败交易的回退原因
// 在回执所在区块重放调用，错误信息中携带合约的revert字符串
func (b *Broadcaster) RevertReason(ctx context.Context, txHash common.Hash) (string, error) {
	client := b.manager.GetClient()

	tx, _, err := client.TransactionByHash(ctx, txHash)
	if err != nil {
		return "", fmt.Errorf("failed to get transaction: %w", err)
	}

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return "", fmt.Errorf("failed to get receipt: %w", err)
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return "", fmt.Errorf("failed to recover sender: %w", err)
	}

	msg := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}

	if _, err := client.CallContract(ctx, msg, receipt.BlockNumber); err != nil {
		return err.Error(), nil
	}

	// 重放未复现失败，返回空原因
	return "", nil
}
