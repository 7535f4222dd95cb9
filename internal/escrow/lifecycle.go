package escrow

// Status 托管项目状态（链下镜像，权威状态在链上）
type Status string

const (
	StatusPending     Status = "pending"      // 创建交易待确认
	StatusActive      Status = "active"       // 创建交易已确认
	StatusUnderReview Status = "under_review" // 存在已完成待放款的里程碑
	StatusCompleted   Status = "completed"    // 四个里程碑全部放款
)

// MilestoneFlags 单个里程碑的生命周期标志
// 三个标志各自单调，只能 false→true，没有反向或跳跃转移：
// funded（随项目创建原子注资）→ complete（自由职业者确认）→ released（客户放款，终态）
type MilestoneFlags struct {
	Funded   bool
	Complete bool
	Released bool
}

// Completed 判定项目是否完成：四个里程碑全部放款
// 这是读取时推导的属性，不落库，避免与标志位脱钩
func Completed(milestones [MilestoneCount]MilestoneFlags) bool {
	for _, m := range milestones {
		if !m.Released {
			return false
		}
	}
	return true
}

// DeriveStatus 根据里程碑标志推导项目状态
// confirmed 表示创建交易是否已在链上确认
func DeriveStatus(confirmed bool, milestones [MilestoneCount]MilestoneFlags) Status {
	if !confirmed {
		return StatusPending
	}
	if Completed(milestones) {
		return StatusCompleted
	}
	for _, m := range milestones {
		if m.Complete && !m.Released {
			return StatusUnderReview
		}
	}
	return StatusActive
}
