package chain

import (
	"math/big"
	"testing"

	"github.com/blues/mes/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func newTestContract(t *testing.T) *EscrowContract {
	t.Helper()

	contract, err := NewEscrowContract(config.ContractConfig{
		Address:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		BlockNum: 100,
	}, 31337)
	if err != nil {
		t.Fatalf("new escrow contract: %v", err)
	}
	return contract
}

func TestNewEscrowContractRequiresAddress(t *testing.T) {
	if _, err := NewEscrowContract(config.ContractConfig{}, 31337); err == nil {
		t.Fatal("expected error for missing contract address")
	}
}

func TestParseProjectCreatedEvent(t *testing.T) {
	contract := newTestContract(t)
	abiEvent := contract.abi.Events["ProjectCreated"]

	data, err := abiEvent.Inputs.NonIndexed().Pack(big.NewInt(100_000_000), uint8(0))
	if err != nil {
		t.Fatalf("pack event data: %v", err)
	}

	log := types.Log{
		Topics: []common.Hash{
			abiEvent.ID,
			common.BigToHash(big.NewInt(7)),
			common.HexToHash("0x1111111111111111111111111111111111111111"),
			common.HexToHash("0x2222222222222222222222222222222222222222"),
		},
		Data:        data,
		TxHash:      common.HexToHash("0xabc"),
		BlockNumber: 120,
		Index:       3,
	}

	event, err := contract.ParseEvent(log)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event["eventName"] != "ProjectCreated" {
		t.Fatalf("unexpected event name: %v", event["eventName"])
	}
	if event["projectId"].(int64) != 7 {
		t.Fatalf("expected project id 7, got %v", event["projectId"])
	}
	if event["totalAmount"].(*big.Int).Int64() != 100_000_000 {
		t.Fatalf("unexpected total amount: %v", event["totalAmount"])
	}
	if event["blockNumber"].(int64) != 120 || event["logIndex"].(int64) != 3 {
		t.Fatalf("log meta not filled: %v", event)
	}
}

func TestParseMilestoneReleasedEvent(t *testing.T) {
	contract := newTestContract(t)
	abiEvent := contract.abi.Events["MilestoneReleased"]

	data, err := abiEvent.Inputs.NonIndexed().Pack(uint8(2), big.NewInt(23_750_000), big.NewInt(1_250_000))
	if err != nil {
		t.Fatalf("pack event data: %v", err)
	}

	log := types.Log{
		Topics: []common.Hash{
			abiEvent.ID,
			common.BigToHash(big.NewInt(7)),
			common.HexToHash("0x2222222222222222222222222222222222222222"),
		},
		Data:        data,
		TxHash:      common.HexToHash("0xdef"),
		BlockNumber: 130,
		Index:       0,
	}

	event, err := contract.ParseEvent(log)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if event["milestone"].(int) != 2 {
		t.Fatalf("expected milestone 2, got %v", event["milestone"])
	}
	if event["payout"].(*big.Int).Int64() != 23_750_000 {
		t.Fatalf("unexpected payout: %v", event["payout"])
	}
	if event["fee"].(*big.Int).Int64() != 1_250_000 {
		t.Fatalf("unexpected fee: %v", event["fee"])
	}
}

func TestParseEventUnknownSignature(t *testing.T) {
	contract := newTestContract(t)

	log := types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	}
	if _, err := contract.ParseEvent(log); err == nil {
		t.Fatal("expected error for unknown event signature")
	}
}
