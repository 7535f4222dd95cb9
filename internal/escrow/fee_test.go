package escrow

import (
	"math"
	"testing"
)

func TestReleaseFeeConservation(t *testing.T) {
	// fee + payout 精确等于金额，手续费永远不超过到账金额
	for amount := int64(1); amount <= 100000; amount++ {
		fee, payout := ReleaseFee(amount)
		if fee+payout != amount {
			t.Fatalf("amount %d: fee %d + payout %d != amount", amount, fee, payout)
		}
		if fee < 0 || payout < 0 {
			t.Fatalf("amount %d: negative part fee=%d payout=%d", amount, fee, payout)
		}
		if fee > payout {
			t.Fatalf("amount %d: fee %d exceeds payout %d", amount, fee, payout)
		}
	}
}

func TestReleaseFeeScenario(t *testing.T) {
	fee, payout := ReleaseFee(10_000_000)
	if fee != 500_000 {
		t.Fatalf("expected fee 500000, got %d", fee)
	}
	if payout != 9_500_000 {
		t.Fatalf("expected payout 9500000, got %d", payout)
	}
}

func TestReleaseFeeLargeAmounts(t *testing.T) {
	// 大额里程碑不能出现溢出：2e18的5%精确等于1e17
	fee, payout := ReleaseFee(2_000_000_000_000_000_000)
	if fee != 100_000_000_000_000_000 {
		t.Fatalf("expected fee 100000000000000000, got %d", fee)
	}
	if payout != 1_900_000_000_000_000_000 {
		t.Fatalf("expected payout 1900000000000000000, got %d", payout)
	}

	// int64上界处守恒关系仍然成立
	for _, amount := range []int64{math.MaxInt64, math.MaxInt64 - 1, 100_000_000_000_000_003} {
		fee, payout := ReleaseFee(amount)
		if fee+payout != amount {
			t.Fatalf("amount %d: fee %d + payout %d != amount", amount, fee, payout)
		}
		if fee != amount/20 {
			t.Fatalf("amount %d: expected fee %d, got %d", amount, amount/20, fee)
		}
	}

	// 守护金额同样不受大额影响
	if guard := GuardAmount(TokenWBTC, 2_000_000_000_000_000_000); guard != 2_000_000_000_000_000_000 {
		t.Fatalf("wbtc guard must cover the full amount, got %d", guard)
	}
}

func TestReleaseFeeRoundsDown(t *testing.T) {
	// 金额不足20时手续费向下取整为0，payout 等于金额
	for amount := int64(1); amount < 20; amount++ {
		fee, payout := ReleaseFee(amount)
		if fee != 0 {
			t.Fatalf("amount %d: expected zero fee, got %d", amount, fee)
		}
		if payout != amount {
			t.Fatalf("amount %d: expected full payout, got %d", amount, payout)
		}
	}
}

func TestGuardAmountPerToken(t *testing.T) {
	amount := int64(10_000_000)
	fee, payout := ReleaseFee(amount)

	// WBTC路径守护覆盖整笔转出金额
	if guard := GuardAmount(TokenWBTC, amount); guard != payout+fee {
		t.Fatalf("wbtc guard: expected %d, got %d", payout+fee, guard)
	}
	// 主代币路径守护只覆盖到账部分
	if guard := GuardAmount(TokenNative, amount); guard != payout {
		t.Fatalf("native guard: expected %d, got %d", payout, guard)
	}
}
