package escrow

import "fmt"

// TokenType 托管代币类型
type TokenType string

const (
	TokenNative TokenType = "native" // 平台主代币（6位小数）
	TokenWBTC   TokenType = "wbtc"   // 包装比特币代币（8位小数）
)

// 各代币的最小单位精度
const (
	NativeDecimals = 6
	WBTCDecimals   = 8
)

// 各代币的最小托管总额（最小单位）
// 精度不同，最小额度也不同：主代币最低1.0，WBTC最低0.0001
const (
	MinTotalNative int64 = 1_000_000
	MinTotalWBTC   int64 = 10_000
)

// ParseTokenType 解析代币类型字符串
func ParseTokenType(s string) (TokenType, error) {
	switch TokenType(s) {
	case TokenNative:
		return TokenNative, nil
	case TokenWBTC:
		return TokenWBTC, nil
	default:
		return "", fmt.Errorf("unknown token type: %s", s)
	}
}

// MinTotal 获取代币的最小托管总额
func (t TokenType) MinTotal() int64 {
	if t == TokenWBTC {
		return MinTotalWBTC
	}
	return MinTotalNative
}

// Decimals 获取代币精度
func (t TokenType) Decimals() int {
	if t == TokenWBTC {
		return WBTCDecimals
	}
	return NativeDecimals
}
