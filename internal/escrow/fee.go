package escrow

// 平台手续费率：500/10000 即 5%
const (
	FeeRateBps  int64 = 500
	FeeRateBase int64 = 10000
)

// ReleaseFee 计算放款手续费与实际到账金额
// 全程整数运算，手续费向下取整，fee + payout 精确等于里程碑金额
// 费率500/10000约分为1/20后用除法计算，大额下不会溢出
func ReleaseFee(amount int64) (fee, payout int64) {
	fee = amount / (FeeRateBase / FeeRateBps)
	payout = amount - fee
	return fee, payout
}

// GuardAmount 计算放款交易的金额守护条件（postcondition）
// WBTC路径合约先整体转出再链上拆分，守护覆盖 payout+fee；
// 主代币路径手续费留存在合约内部，守护只覆盖 payout
func GuardAmount(token TokenType, milestoneAmount int64) int64 {
	fee, payout := ReleaseFee(milestoneAmount)
	if token == TokenWBTC {
		return payout + fee
	}
	return payout
}
