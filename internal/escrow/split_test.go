package escrow

import (
	"errors"
	"testing"
)

func TestSplitAmountsSumsExactly(t *testing.T) {
	// 任意正整数总额拆分后四个金额之和精确等于总额
	for total := int64(1); total <= 10000; total++ {
		amounts, err := SplitAmounts(total)
		if err != nil {
			t.Fatalf("split %d: %v", total, err)
		}

		var sum int64
		for _, a := range amounts {
			sum += a
		}
		if sum != total {
			t.Fatalf("split %d: amounts %v sum to %d", total, amounts, sum)
		}

		base := total / 4
		if amounts[0] != base || amounts[1] != base || amounts[2] != base {
			t.Fatalf("split %d: first three milestones should be %d, got %v", total, base, amounts)
		}
		if amounts[3] != total-3*base {
			t.Fatalf("split %d: last milestone should absorb remainder, got %d", total, amounts[3])
		}
	}
}

func TestSplitAmountsScenarios(t *testing.T) {
	amounts, err := SplitAmounts(100_000_000)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for i, a := range amounts {
		if a != 25_000_000 {
			t.Fatalf("milestone %d: expected 25000000, got %d", i+1, a)
		}
	}

	amounts, err = SplitAmounts(100_000_001)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	expected := [MilestoneCount]int64{25_000_000, 25_000_000, 25_000_000, 25_000_001}
	if amounts != expected {
		t.Fatalf("expected %v, got %v", expected, amounts)
	}
}

func TestSplitAmountsRejectsNonPositive(t *testing.T) {
	for _, total := range []int64{0, -1, -100_000_000} {
		if _, err := SplitAmounts(total); !errors.Is(err, ErrAmountTooSmall) {
			t.Fatalf("split %d: expected ErrAmountTooSmall, got %v", total, err)
		}
	}
}

func TestValidateCreateSelfDealing(t *testing.T) {
	addr := "0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa"

	err := ValidateCreate(addr, addr, 100_000_000, TokenNative)
	if !errors.Is(err, ErrInvalidParties) {
		t.Fatalf("expected ErrInvalidParties, got %v", err)
	}

	// 地址比较不区分大小写
	err = ValidateCreate(addr, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100_000_000, TokenNative)
	if !errors.Is(err, ErrInvalidParties) {
		t.Fatalf("expected ErrInvalidParties for case-variant address, got %v", err)
	}
}

func TestValidateCreateMinimums(t *testing.T) {
	client := "0x1111111111111111111111111111111111111111"
	freelancer := "0x2222222222222222222222222222222222222222"

	// 各代币最小额度不同
	if err := ValidateCreate(client, freelancer, MinTotalNative-1, TokenNative); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall for native, got %v", err)
	}
	if err := ValidateCreate(client, freelancer, MinTotalNative, TokenNative); err != nil {
		t.Fatalf("minimum native amount should pass: %v", err)
	}
	if err := ValidateCreate(client, freelancer, MinTotalWBTC-1, TokenWBTC); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall for wbtc, got %v", err)
	}
	if err := ValidateCreate(client, freelancer, MinTotalWBTC, TokenWBTC); err != nil {
		t.Fatalf("minimum wbtc amount should pass: %v", err)
	}
}

func TestValidateMilestoneNumberBoundary(t *testing.T) {
	for _, num := range []int{0, 5, -1, 100} {
		if err := ValidateMilestoneNumber(num); !errors.Is(err, ErrInvalidMilestone) {
			t.Fatalf("milestone %d: expected ErrInvalidMilestone, got %v", num, err)
		}
	}
	for num := 1; num <= MilestoneCount; num++ {
		if err := ValidateMilestoneNumber(num); err != nil {
			t.Fatalf("milestone %d should be valid: %v", num, err)
		}
	}
}

func TestParseTokenType(t *testing.T) {
	if _, err := ParseTokenType("native"); err != nil {
		t.Fatalf("native: %v", err)
	}
	if _, err := ParseTokenType("wbtc"); err != nil {
		t.Fatalf("wbtc: %v", err)
	}
	if _, err := ParseTokenType("doge"); err == nil {
		t.Fatal("expected error for unknown token type")
	}
}
