package escrow

import "strings"

// MilestoneCount 每个托管项目的里程碑数量（固定）
const MilestoneCount = 4

// SplitAmounts 将托管总额拆分为4个里程碑金额
// 前3个里程碑取 total/4 向下取整，余数全部归入第4个，
// 保证四个金额之和精确等于总额，不产生舍入损失
func SplitAmounts(total int64) ([MilestoneCount]int64, error) {
	var amounts [MilestoneCount]int64
	if total <= 0 {
		return amounts, ErrAmountTooSmall
	}

	base := total / MilestoneCount
	amounts[0] = base
	amounts[1] = base
	amounts[2] = base
	amounts[3] = total - 3*base

	return amounts, nil
}

// ValidateCreate 校验托管项目创建参数
// 所有校验在任何链上调用之前同步完成
func ValidateCreate(client, freelancer string, total int64, token TokenType) error {
	if client == "" || freelancer == "" {
		return ErrInvalidParties
	}
	if sameAddress(client, freelancer) {
		return ErrInvalidParties
	}
	if total < token.MinTotal() {
		return ErrAmountTooSmall
	}
	return nil
}

// ValidateMilestoneNumber 校验里程碑编号，合法范围为闭区间[1,4]
func ValidateMilestoneNumber(num int) error {
	if num < 1 || num > MilestoneCount {
		return ErrInvalidMilestone
	}
	return nil
}

// sameAddress 地址比较不区分大小写
func sameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
