package handler

import (
	"errors"
	"net/http"

	"github.com/blues/mes/internal/escrow"
	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Pagination 分页信息结构
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWithError 按错误类型映射HTTP状态码
func FailWithError(c *gin.Context, err error) {
	ErrorResponse(c, statusCodeFor(err), err.Error())
}

// statusCodeFor 错误类型到HTTP状态码的映射
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, escrow.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, escrow.ErrAlreadyReleased),
		errors.Is(err, escrow.ErrAlreadyComplete):
		return http.StatusConflict
	case errors.Is(err, escrow.ErrInvalidParties),
		errors.Is(err, escrow.ErrAmountTooSmall),
		errors.Is(err, escrow.ErrInvalidMilestone):
		return http.StatusBadRequest
	case errors.Is(err, escrow.ErrNotClient),
		errors.Is(err, escrow.ErrNotFreelancer):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
