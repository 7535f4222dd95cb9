package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blues/mes/internal/database"
	"github.com/blues/mes/internal/escrow"
	"github.com/blues/mes/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const testWallet = "0x1111111111111111111111111111111111111111"

// fakeBroadcaster 测试用交易广播器
type fakeBroadcaster struct {
	count int
}

func (f *fakeBroadcaster) BroadcastRaw(_ context.Context, _ string) (common.Hash, error) {
	f.count++
	return common.HexToHash(fmt.Sprintf("0x%064x", f.count)), nil
}

func (f *fakeBroadcaster) BroadcastTokenTransfer(ctx context.Context, rawTx string) (common.Hash, error) {
	return f.BroadcastRaw(ctx, rawTx)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	return Setup(db, &fakeBroadcaster{}, nil), db
}

func createProjectBody() map[string]interface{} {
	return map[string]interface{}{
		"freelancer_address": "0x2222222222222222222222222222222222222222",
		"total_amount":       100_000_000,
		"token_type":         "native",
		"description":        "网站重构",
		"milestones": []map[string]string{
			{"title": "设计稿"},
			{"title": "前端"},
			{"title": "后端"},
			{"title": "上线"},
		},
		"signed_tx": "0xf86c0184...",
	}
}

func doRequest(r *gin.Engine, method, path string, body map[string]interface{}, wallet string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if wallet != "" {
		req.Header.Set("X-Wallet-Address", wallet)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateProjectEndpoint(t *testing.T) {
	r, db := setupTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", createProjectBody(), testWallet)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Outcome string `json:"outcome"`
			Project struct {
				Id         int64 `json:"id"`
				Milestones []struct {
					Number int   `json:"number"`
					Amount int64 `json:"amount"`
				} `json:"milestones"`
			} `json:"project"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "created", resp.Data.Outcome)
	assert.Len(t, resp.Data.Project.Milestones, escrow.MilestoneCount)

	var count int64
	db.Model(&model.ProjectModel{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateProjectRequiresWallet(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", createProjectBody(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProjectSelfDealingRejected(t *testing.T) {
	r, db := setupTestRouter(t)

	body := createProjectBody()
	body["freelancer_address"] = testWallet

	w := doRequest(r, http.MethodPost, "/api/v1/projects", body, testWallet)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&model.ProjectModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateProjectCancelledOutcome(t *testing.T) {
	r, db := setupTestRouter(t)

	body := createProjectBody()
	body["cancelled"] = true

	// 钱包取消是明确结果而非错误
	w := doRequest(r, http.MethodPost, "/api/v1/projects", body, testWallet)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Outcome string `json:"outcome"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Data.Outcome)

	var count int64
	db.Model(&model.ProjectModel{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetProjectNotFound(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/projects/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMilestoneNumberOutOfRange(t *testing.T) {
	r, _ := setupTestRouter(t)

	body := map[string]interface{}{"signed_tx": "0xabc"}
	// 越界编号在任何链上交互之前同步拒绝
	for _, num := range []int{0, 5} {
		path := fmt.Sprintf("/api/v1/projects/1/milestones/%d/complete", num)
		w := doRequest(r, http.MethodPost, path, body, testWallet)
		assert.Equal(t, http.StatusBadRequest, w.Code, "milestone %d", num)

		path = fmt.Sprintf("/api/v1/projects/1/milestones/%d/release", num)
		w = doRequest(r, http.MethodPost, path, body, testWallet)
		assert.Equal(t, http.StatusBadRequest, w.Code, "milestone %d", num)
	}
}

func TestCompleteMilestoneFlow(t *testing.T) {
	r, db := setupTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", createProjectBody(), testWallet)
	require.Equal(t, http.StatusCreated, w.Code)

	body := map[string]interface{}{
		"completion_description": "交付已上传",
		"signed_tx":              "0xf86c02...",
	}
	w = doRequest(r, http.MethodPost, "/api/v1/projects/1/milestones/1/complete", body, testWallet)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Data struct {
			Outcome string `json:"outcome"`
			TxHash  string `json:"tx_hash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "submitted", resp.Data.Outcome)
	assert.NotEmpty(t, resp.Data.TxHash)

	// 端点只暂存提交记录，镜像标志位不变
	var milestone model.MilestoneModel
	require.NoError(t, db.Where("project_id = ? AND number = ?", 1, 1).First(&milestone).Error)
	assert.False(t, milestone.Complete)

	var submission model.SubmissionModel
	require.NoError(t, db.Where("tx_hash = ?", resp.Data.TxHash).First(&submission).Error)
	assert.Equal(t, model.ActionComplete, submission.Action)
	assert.Equal(t, "交付已上传", submission.CompletionDescription)
}

func TestReleaseMilestoneConflict(t *testing.T) {
	r, db := setupTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", createProjectBody(), testWallet)
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, db.Model(&model.MilestoneModel{}).
		Where("project_id = ? AND number = ?", 1, 2).
		Updates(map[string]interface{}{"complete": true, "released": true}).Error)

	body := map[string]interface{}{"signed_tx": "0xf86c03..."}
	w = doRequest(r, http.MethodPost, "/api/v1/projects/1/milestones/2/release", body, testWallet)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetMilestonesEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", createProjectBody(), testWallet)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/projects/1/milestones", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Milestones []struct {
				Number int   `json:"number"`
				Amount int64 `json:"amount"`
			} `json:"milestones"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Milestones, escrow.MilestoneCount)

	var sum int64
	for _, m := range resp.Data.Milestones {
		sum += m.Amount
	}
	assert.Equal(t, int64(100_000_000), sum)
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", createProjectBody(), testWallet)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/stats", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Data["totalProjects"])
	assert.EqualValues(t, 1, resp.Data["pendingProjects"])
}
