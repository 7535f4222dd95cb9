package monitor

import (
	"context"
	"fmt"
	"testing"

	"github.com/blues/mes/internal/chain"
	"github.com/blues/mes/internal/config"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChainSource 测试用链访问器，可预置某个扫描窗口失败
type fakeChainSource struct {
	escrow   *chain.EscrowContract
	head     int64
	failFrom int64 // 以此起点的窗口返回错误
	scanned  [][2]int64
}

func newFakeChainSource(t *testing.T, head, failFrom int64) *fakeChainSource {
	t.Helper()

	escrow, err := chain.NewEscrowContract(config.ContractConfig{
		Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	}, 31337)
	if err != nil {
		t.Fatalf("new escrow contract: %v", err)
	}

	return &fakeChainSource{escrow: escrow, head: head, failFrom: failFrom}
}

func (f *fakeChainSource) CurrentBlockNumber(_ context.Context) (int64, error) {
	return f.head, nil
}

func (f *fakeChainSource) FilterEscrowLogs(_ context.Context, fromBlock, toBlock int64) ([]types.Log, error) {
	f.scanned = append(f.scanned, [2]int64{fromBlock, toBlock})
	if fromBlock == f.failFrom {
		return nil, fmt.Errorf("request failed")
	}
	return nil, nil
}

func (f *fakeChainSource) GetEscrow() *chain.EscrowContract {
	return f.escrow
}

func (f *fakeChainSource) GetHealthStatus() map[string]interface{} {
	return map[string]interface{}{"client_status": "connected"}
}

func TestScanCursorStopsAtFailedWindow(t *testing.T) {
	db := setupTestDB(t)
	source := newFakeChainSource(t, 1499, 500)
	monitor := NewEventMonitor(source, db)

	// 三个窗口：0-499成功，500-999失败，1000-1499不应再被扫描
	err := monitor.processBlocksInBatches(0, 1499)
	if err == nil {
		t.Fatal("failed batch must abort the scan round")
	}

	if len(source.scanned) != 2 {
		t.Fatalf("expected scan to stop after the failed window, scanned %v", source.scanned)
	}

	// 游标停在失败窗口起点，下一轮从这里重试
	status := monitor.GetStatus()
	if got := status["start_block"].(int64); got != 500 {
		t.Fatalf("cursor must stay at the failed window start 500, got %d", got)
	}
}

func TestScanCursorAdvancesThroughCleanRound(t *testing.T) {
	db := setupTestDB(t)
	source := newFakeChainSource(t, 999, -1)
	monitor := NewEventMonitor(source, db)

	if err := monitor.processBlocksInBatches(0, 999); err != nil {
		t.Fatalf("clean round: %v", err)
	}

	status := monitor.GetStatus()
	if got := status["start_block"].(int64); got != 1000 {
		t.Fatalf("cursor must advance past the scanned range, got %d", got)
	}
}
