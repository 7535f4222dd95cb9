package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/mes/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReleaseRecordHandler 放款记录处理器
type ReleaseRecordHandler struct {
	releaseLogic *logic.ReleaseRecordLogic
}

// NewReleaseRecordHandler 创建放款记录处理器
func NewReleaseRecordHandler(db *gorm.DB) *ReleaseRecordHandler {
	return &ReleaseRecordHandler{
		releaseLogic: logic.NewReleaseRecordLogic(db),
	}
}

// GetProjectReleases 获取项目的放款记录
func (h *ReleaseRecordHandler) GetProjectReleases(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := h.releaseLogic.GetProjectReleases(projectId, page, pageSize)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"releases": ToReleaseRecordResponseList(records),
		"pagination": Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

// GetReleaseStats 获取项目的放款统计
func (h *ReleaseRecordHandler) GetReleaseStats(c *gin.Context) {
	projectId, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	stats, err := h.releaseLogic.GetReleaseStats(projectId)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}
