package handler

import (
	"time"

	"github.com/blues/mes/internal/logic"
	"github.com/blues/mes/internal/model"
)

// 项目相关请求模型

// CreateProjectRequest 创建托管项目请求
type CreateProjectRequest struct {
	FreelancerAddress string                `json:"freelancer_address"`
	TotalAmount       int64                 `json:"total_amount"`
	TokenType         string                `json:"token_type"`
	Description       string                `json:"description"`
	Category          string                `json:"category"`
	Subcategory       string                `json:"subcategory"`
	Milestones        []logic.MilestoneInput `json:"milestones"`

	SignedTx         string `json:"signed_tx"`
	SignedTransferTx string `json:"signed_transfer_tx"`
	Cancelled        bool   `json:"cancelled"`
}

// CompleteMilestoneRequest 标记里程碑完成请求
type CompleteMilestoneRequest struct {
	CompletionDescription string `json:"completion_description"`
	CompletionAttachment  string `json:"completion_attachment"`
	SignedTx              string `json:"signed_tx"`
	Cancelled             bool   `json:"cancelled"`
}

// ReleaseMilestoneRequest 里程碑放款请求
type ReleaseMilestoneRequest struct {
	SignedTx  string `json:"signed_tx"`
	Cancelled bool   `json:"cancelled"`
}

// 响应模型

// MilestoneResponse 里程碑响应模型
type MilestoneResponse struct {
	Number                int    `json:"number"`
	Amount                int64  `json:"amount"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	Attachment            string `json:"attachment"`
	Funded                bool   `json:"funded"`
	Complete              bool   `json:"complete"`
	Released              bool   `json:"released"`
	CompletionDescription string `json:"completionDescription"`
	CompletionAttachment  string `json:"completionAttachment"`
}

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID                int64               `json:"id"`
	ClientAddress     string              `json:"clientAddress"`
	FreelancerAddress string              `json:"freelancerAddress"`
	TotalAmount       int64               `json:"totalAmount"`
	TokenType         string              `json:"tokenType"`
	Status            string              `json:"status"`
	Description       string              `json:"description"`
	Category          string              `json:"category"`
	Subcategory       string              `json:"subcategory"`
	OnChainId         *int64              `json:"onChainId"`
	TxHash            string              `json:"txHash"`
	IsCompleted       bool                `json:"isCompleted"`
	Milestones        []MilestoneResponse `json:"milestones"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// ReleaseRecordResponse 放款记录响应模型
type ReleaseRecordResponse struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Milestone int       `json:"milestone"`
	Amount    int64     `json:"amount"`
	Fee       int64     `json:"fee"`
	Payout    int64     `json:"payout"`
	TxHash    string    `json:"txHash"`
	BlockNum  int64     `json:"blockNum"`
	CreatedAt time.Time `json:"createdAt"`
}

// 转换函数

// ToMilestoneResponse 将里程碑模型转换为响应模型
func ToMilestoneResponse(m *model.MilestoneModel) MilestoneResponse {
	return MilestoneResponse{
		Number:                m.Number,
		Amount:                m.Amount,
		Title:                 m.Title,
		Description:           m.Description,
		Attachment:            m.Attachment,
		Funded:                m.Funded,
		Complete:              m.Complete,
		Released:              m.Released,
		CompletionDescription: m.CompletionDescription,
		CompletionAttachment:  m.CompletionAttachment,
	}
}

// ToProjectResponse 将项目模型转换为响应模型
// 完成与否在此推导，不读任何缓存字段
func ToProjectResponse(project *model.ProjectModel) ProjectResponse {
	milestones := make([]MilestoneResponse, len(project.Milestones))
	for i, m := range project.Milestones {
		milestones[i] = ToMilestoneResponse(&m)
	}

	return ProjectResponse{
		ID:                project.Id,
		ClientAddress:     project.ClientAddress,
		FreelancerAddress: project.FreelancerAddress,
		TotalAmount:       project.TotalAmount,
		TokenType:         string(project.TokenType),
		Status:            string(project.Status),
		Description:       project.Description,
		Category:          project.Category,
		Subcategory:       project.Subcategory,
		OnChainId:         project.OnChainId,
		TxHash:            project.TxHash,
		IsCompleted:       project.IsCompleted(),
		Milestones:        milestones,
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
	}
}

// ToProjectResponseList 将项目模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i, project := range projects {
		result[i] = ToProjectResponse(&project)
	}
	return result
}

// ToReleaseRecordResponse 将放款记录模型转换为响应模型
func ToReleaseRecordResponse(r *model.ReleaseRecordModel) ReleaseRecordResponse {
	return ReleaseRecordResponse{
		ID:        r.Id,
		ProjectID: r.ProjectId,
		Milestone: r.Milestone,
		Amount:    r.Amount,
		Fee:       r.Fee,
		Payout:    r.Payout,
		TxHash:    r.TxHash,
		BlockNum:  r.BlockNum,
		CreatedAt: r.CreatedAt,
	}
}

// ToReleaseRecordResponseList 将放款记录列表转换为响应模型列表
func ToReleaseRecordResponseList(records []model.ReleaseRecordModel) []ReleaseRecordResponse {
	result := make([]ReleaseRecordResponse, len(records))
	for i, record := range records {
		result[i] = ToReleaseRecordResponse(&record)
	}
	return result
}
