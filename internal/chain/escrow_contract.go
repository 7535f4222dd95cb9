package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/mes/internal/config"
	"github.com/blues/mes/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// 托管合约ABI定义（事件部分）
const escrowABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "projectId", "type": "uint256"},
			{"indexed": true, "name": "client", "type": "address"},
			{"indexed": true, "name": "freelancer", "type": "address"},
			{"indexed": false, "name": "totalAmount", "type": "uint256"},
			{"indexed": false, "name": "tokenType", "type": "uint8"}
		],
		"name": "ProjectCreated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "projectId", "type": "uint256"},
			{"indexed": false, "name": "milestone", "type": "uint8"}
		],
		"name": "MilestoneCompleted",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "projectId", "type": "uint256"},
			{"indexed": true, "name": "freelancer", "type": "address"},
			{"indexed": false, "name": "milestone", "type": "uint8"},
			{"indexed": false, "name": "payout", "type": "uint256"},
			{"indexed": false, "name": "fee", "type": "uint256"}
		],
		"name": "MilestoneReleased",
		"type": "event"
	}
]`

// EscrowContract 托管合约工具类
type EscrowContract struct {
	address  common.Address // 合约地址
	abi      abi.ABI        // 合约ABI
	blockNum int64          // 合约部署的区块号
	chainId  int64          // 链ID
}

// NewEscrowContract 创建托管合约实例
func NewEscrowContract(cfg config.ContractConfig, chainId int64) (*EscrowContract, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("no escrow contract address configured")
	}

	parsedABI, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	return &EscrowContract{
		address:  common.HexToAddress(cfg.Address),
		abi:      parsedABI,
		blockNum: cfg.BlockNum,
		chainId:  chainId,
	}, nil
}

// GetAddress 获取合约地址
func (c *EscrowContract) GetAddress() common.Address {
	return c.address
}

// GetBlockNum 获取合约部署区块号
func (c *EscrowContract) GetBlockNum() int64 {
	return c.blockNum
}

// GetChainId 获取链ID
func (c *EscrowContract) GetChainId() int64 {
	return c.chainId
}

// ParseEvent 解析事件日志
func (c *EscrowContract) ParseEvent(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log has no topics")
	}
	eventSignature := log.Topics[0].Hex()

	switch eventSignature {
	case c.abi.Events["ProjectCreated"].ID.Hex():
		return c.parseProjectCreated(log)
	case c.abi.Events["MilestoneCompleted"].ID.Hex():
		return c.parseMilestoneCompleted(log)
	case c.abi.Events["MilestoneReleased"].ID.Hex():
		return c.parseMilestoneReleased(log)
	default:
		logger.Warn("Unknown event signature: %s", eventSignature)
		return nil, fmt.Errorf("unknown event signature: %s", eventSignature)
	}
}

// parseProjectCreated 解析项目创建事件
func (c *EscrowContract) parseProjectCreated(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) < 4 {
		return nil, fmt.Errorf("invalid ProjectCreated event: insufficient topics")
	}

	event := make(map[string]interface{})
	event["eventName"] = "ProjectCreated"
	event["projectId"] = new(big.Int).SetBytes(log.Topics[1].Bytes()).Int64()
	event["client"] = common.BytesToAddress(log.Topics[2].Bytes()).Hex()
	event["freelancer"] = common.BytesToAddress(log.Topics[3].Bytes()).Hex()

	// 解析非索引参数（totalAmount, tokenType）
	values, err := c.abi.Unpack("ProjectCreated", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack ProjectCreated data: %w", err)
	}
	if len(values) >= 2 {
		event["totalAmount"] = values[0].(*big.Int)
		event["tokenType"] = values[1].(uint8)
	}

	c.fillLogMeta(event, log)
	return event, nil
}

// parseMilestoneCompleted 解析里程碑完成事件
func (c *EscrowContract) parseMilestoneCompleted(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) < 2 {
		return nil, fmt.Errorf("invalid MilestoneCompleted event: insufficient topics")
	}

	event := make(map[string]interface{})
	event["eventName"] = "MilestoneCompleted"
	event["projectId"] = new(big.Int).SetBytes(log.Topics[1].Bytes()).Int64()

	values, err := c.abi.Unpack("MilestoneCompleted", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack MilestoneCompleted data: %w", err)
	}
	if len(values) >= 1 {
		event["milestone"] = int(values[0].(uint8))
	}

	c.fillLogMeta(event, log)
	return event, nil
}

// parseMilestoneReleased 解析里程碑放款事件
func (c *EscrowContract) parseMilestoneReleased(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) < 3 {
		return nil, fmt.Errorf("invalid MilestoneReleased event: insufficient topics")
	}

	event := make(map[string]interface{})
	event["eventName"] = "MilestoneReleased"
	event["projectId"] = new(big.Int).SetBytes(log.Topics[1].Bytes()).Int64()
	event["freelancer"] = common.BytesToAddress(log.Topics[2].Bytes()).Hex()

	values, err := c.abi.Unpack("MilestoneReleased", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack MilestoneReleased data: %w", err)
	}
	if len(values) >= 3 {
		event["milestone"] = int(values[0].(uint8))
		event["payout"] = values[1].(*big.Int)
		event["fee"] = values[2].(*big.Int)
	}

	c.fillLogMeta(event, log)
	return event, nil
}

// fillLogMeta 填充日志元信息
func (c *EscrowContract) fillLogMeta(event map[string]interface{}, log types.Log) {
	event["txHash"] = log.TxHash.Hex()
	event["blockNumber"] = int64(log.BlockNumber)
	event["logIndex"] = int64(log.Index)
}
