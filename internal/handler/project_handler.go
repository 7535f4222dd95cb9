package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ProjectHandler 托管项目处理器
type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

// NewProjectHandler 创建托管项目处理器
func NewProjectHandler(db *gorm.DB, broadcaster logic.TxBroadcaster) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: logic.NewProjectLogic(db, broadcaster),
	}
}

// CreateProject 创建托管项目
// 客户地址来自钱包会话头；钱包取消返回明确的取消结果，不落任何记录
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	client := c.GetHeader("X-Wallet-Address")
	if client == "" {
		ErrorResponse(c, http.StatusUnauthorized, "缺少钱包地址")
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	input := logic.CreateProjectInput{
		ClientAddress:     client,
		FreelancerAddress: req.FreelancerAddress,
		TotalAmount:       req.TotalAmount,
		TokenType:         req.TokenType,
		Description:       req.Description,
		Category:          req.Category,
		Subcategory:       req.Subcategory,
		SignedTx:          req.SignedTx,
		SignedTransferTx:  req.SignedTransferTx,
		Cancelled:         req.Cancelled,
	}
	for i := 0; i < escrow.MilestoneCount && i < len(req.Milestones); i++ {
		input.Milestones[i] = req.Milestones[i]
	}

	outcome, err := h.projectLogic.CreateProject(c.Request.Context(), input)
	if err != nil {
		FailWithError(c, err)
		return
	}

	if outcome.Cancelled {
		SuccessResponse(c, http.StatusOK, "已取消", gin.H{"outcome": "cancelled"})
		return
	}

	SuccessResponse(c, http.StatusCreated, "托管项目已创建，等待链上确认", gin.H{
		"outcome": "created",
		"project": ToProjectResponse(outcome.Project),
	})
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	client := c.Query("client")
	freelancer := c.Query("freelancer")
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	projects, total, err := h.projectLogic.GetProjects(client, freelancer, status, page, pageSize)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"projects": ToProjectResponseList(projects),
		"pagination": Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"project": ToProjectResponse(project)})
}

// GetProjectStats 获取项目统计信息
func (h *ProjectHandler) GetProjectStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	stats, err := h.projectLogic.GetProjectStats(id)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}

// GetAllProjectStats 获取全部项目统计信息
func (h *ProjectHandler) GetAllProjectStats(c *gin.Context) {
	stats, err := h.projectLogic.GetAllProjectStats()
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}
