package escrow

import (
	"errors"
	"strings"
)

// 托管业务错误
var (
	ErrInvalidParties   = errors.New("客户地址与自由职业者地址不能相同")
	ErrAmountTooSmall   = errors.New("托管总额低于代币最小额度")
	ErrInvalidMilestone = errors.New("里程碑编号必须在1-4之间")
	ErrAlreadyComplete  = errors.New("里程碑已完成")
	ErrAlreadyReleased  = errors.New("里程碑已放款")
	ErrNotComplete      = errors.New("里程碑尚未完成")
	ErrNotClient        = errors.New("调用者不是项目客户")
	ErrNotFreelancer    = errors.New("调用者不是项目自由职业者")
	ErrChainRejected    = errors.New("链上交易被拒绝")
	ErrProjectNotFound  = errors.New("项目不存在")
)

// MapRevertReason 将合约回退原因映射为业务错误
// 链层是角色与状态的权威，镜像只负责转述拒绝原因
func MapRevertReason(reason string) error {
	switch {
	case strings.Contains(reason, "not-client"):
		return ErrNotClient
	case strings.Contains(reason, "not-freelancer"):
		return ErrNotFreelancer
	case strings.Contains(reason, "already-complete"):
		return ErrAlreadyComplete
	case strings.Contains(reason, "already-released"):
		return ErrAlreadyReleased
	case strings.Contains(reason, "not-complete"):
		return ErrNotComplete
	default:
		return ErrChainRejected
	}
}
