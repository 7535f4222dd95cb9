package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MilestoneHandler 里程碑处理器
type MilestoneHandler struct {
	milestoneLogic *logic.MilestoneLogic
}

// NewMilestoneHandler 创建里程碑处理器
func NewMilestoneHandler(db *gorm.DB, broadcaster logic.TxBroadcaster) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneLogic: logic.NewMilestoneLogic(db, broadcaster),
	}
}

// CompleteMilestone 标记里程碑完成（自由职业者操作）
func (h *MilestoneHandler) CompleteMilestone(c *gin.Context) {
	projectId, number, ok := h.parseParams(c)
	if !ok {
		return
	}

	var req CompleteMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.milestoneLogic.CompleteMilestone(c.Request.Context(), projectId, number, logic.CompleteMilestoneInput{
		CompletionDescription: req.CompletionDescription,
		CompletionAttachment:  req.CompletionAttachment,
		SignedTx:              req.SignedTx,
		Cancelled:             req.Cancelled,
	})
	if err != nil {
		FailWithError(c, err)
		return
	}

	respondActionOutcome(c, "完成提交已广播，等待链上确认", outcome)
}

// ReleaseMilestone 里程碑放款（客户操作）
func (h *MilestoneHandler) ReleaseMilestone(c *gin.Context) {
	projectId, number, ok := h.parseParams(c)
	if !ok {
		return
	}

	var req ReleaseMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.milestoneLogic.ReleaseMilestone(c.Request.Context(), projectId, number, logic.ReleaseMilestoneInput{
		SignedTx:  req.SignedTx,
		Cancelled: req.Cancelled,
	})
	if err != nil {
		FailWithError(c, err)
		return
	}

	respondActionOutcome(c, "放款提交已广播，等待链上确认", outcome)
}

// GetMilestones 获取项目的里程碑列表
func (h *MilestoneHandler) GetMilestones(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	milestones, err := h.milestoneLogic.GetMilestones(projectId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	responses := make([]MilestoneResponse, len(milestones))
	for i, m := range milestones {
		responses[i] = ToMilestoneResponse(&m)
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"milestones": responses})
}

// parseParams 解析项目ID与里程碑编号
// 里程碑编号先行校验，越界在任何链上交互前同步拒绝
func (h *MilestoneHandler) parseParams(c *gin.Context) (int64, int, bool) {
	if c.GetHeader("X-Wallet-Address") == "" {
		ErrorResponse(c, http.StatusUnauthorized, "缺少钱包地址")
		return 0, 0, false
	}

	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return 0, 0, false
	}

	number, err := strconv.Atoi(c.Param("num"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, escrow.ErrInvalidMilestone.Error())
		return 0, 0, false
	}
	if err := escrow.ValidateMilestoneNumber(number); err != nil {
		FailWithError(c, err)
		return 0, 0, false
	}

	return projectId, number, true
}

// respondActionOutcome 统一的里程碑操作响应
func respondActionOutcome(c *gin.Context, message string, outcome *logic.ActionOutcome) {
	if outcome.Cancelled {
		SuccessResponse(c, http.StatusOK, "已取消", gin.H{"outcome": "cancelled"})
		return
	}
	if outcome.NoOp {
		SuccessResponse(c, http.StatusOK, "无需重复操作", gin.H{"outcome": "noop"})
		return
	}

	SuccessResponse(c, http.StatusAccepted, message, gin.H{
		"outcome": "submitted",
		"tx_hash": outcome.TxHash,
	})
}
