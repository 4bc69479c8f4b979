package repository_test

import (
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/model"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/repository"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHistoryRepository_AppendAndFind 测试历史事件按追加顺序返回
func TestHistoryRepository_AppendAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewHistoryRepository(db)

	t0 := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
	events := []*model.HistoryEventModel{
		{ID: "e1", ReportID: "r1", Action: string(workflow.ActionSubmitted), ActorID: "w1", CreatedAt: t0},
		{ID: "e2", ReportID: "r1", Action: string(workflow.ActionRejected), ActorID: "a1", CreatedAt: t0},
		{ID: "e3", ReportID: "r2", Action: string(workflow.ActionSubmitted), ActorID: "w1", CreatedAt: t0},
	}
	for _, e := range events {
		require.NoError(t, repo.Append(e))
	}

	found, err := repo.FindByReportID("r1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "e1", found[0].ID)
	assert.Equal(t, 1, found[0].Seq)
	assert.Equal(t, 2, found[1].Seq)
	assert.Equal(t, workflow.ActionRejected, found[1].ToEvent().Action)
	assert.Equal(t, 1, events[2].Seq)

	// 重复 ID 不能覆盖已有事件
	assert.Error(t, repo.Append(&model.HistoryEventModel{ID: "e1", ReportID: "r1", Action: "APPROVED", ActorID: "x", CreatedAt: t0}))
	assert.Error(t, repo.Append(&model.HistoryEventModel{ID: "e4", ReportID: "r1"}))
}

// TestStateHistoryRepository 测试状态历史
func TestStateHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewStateHistoryRepository(db)

	t0 := time.Now()
	require.NoError(t, repo.Save(&model.StateHistoryModel{ID: "s2", ReportID: "r1", FromState: "IN_PROGRESS", ToState: "APPROVED", Operator: "a1", CreatedAt: t0.Add(time.Second)}))
	require.NoError(t, repo.Save(&model.StateHistoryModel{ID: "s1", ReportID: "r1", FromState: "DRAFT", ToState: "IN_PROGRESS", Operator: "w1", CreatedAt: t0}))

	found, err := repo.FindByReportID("r1")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "s1", found[0].ID)
}

// TestAttachmentRepository 测试附件元数据
func TestAttachmentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAttachmentRepository(db)

	require.NoError(t, repo.Save(&model.AttachmentModel{ID: "f1", ReportID: "r1", Name: "a.pdf", ObjectKey: "reports/r1/f1", URL: "/api/v1/attachments/f1", Size: 3, CreatedAt: time.Now()}))
	assert.Error(t, repo.Save(&model.AttachmentModel{ID: "f2", ReportID: "r1"}))

	found, err := repo.FindByID("f1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", found.Name)

	list, err := repo.FindByReportID("r1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete("f1"))
	list, err = repo.FindByReportID("r1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
