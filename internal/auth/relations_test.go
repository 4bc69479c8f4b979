package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore 记录调用次数的关系存储
type countingStore struct {
	*auth.MemoryRelationStore
	checks int
}

func (s *countingStore) CheckPermission(ctx context.Context, userID, relation, objectType, objectID string) (bool, error) {
	s.checks++
	return s.MemoryRelationStore.CheckPermission(ctx, userID, relation, objectType, objectID)
}

// TestMemoryRelationStoreViewer 测试 viewer 由其他关系派生
func TestMemoryRelationStoreViewer(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryRelationStore()
	require.NoError(t, store.SetRelation(ctx, "a1", auth.RelationApprover, auth.ObjectReport, "r1"))

	ok, err := store.CheckPermission(ctx, "a1", auth.RelationViewer, auth.ObjectReport, "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.CheckPermission(ctx, "a1", auth.RelationWriter, auth.ObjectReport, "r1")
	assert.False(t, ok)

	ok, _ = store.CheckPermission(ctx, "a1", auth.RelationViewer, auth.ObjectReport, "r2")
	assert.False(t, ok)

	require.NoError(t, store.DeleteRelation(ctx, "a1", auth.RelationApprover, auth.ObjectReport, "r1"))
	ok, _ = store.CheckPermission(ctx, "a1", auth.RelationViewer, auth.ObjectReport, "r1")
	assert.False(t, ok)
}

// TestSyncReportRelations 测试审批线变化后同步关系
func TestSyncReportRelations(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryRelationStore()
	before := &workflow.ReportDocument{
		ID:           "r1",
		WriterID:     "w1",
		ApprovalLine: workflow.LineOf(workflow.Reference{EmployeeID: "a1"}, workflow.Reference{EmployeeID: "b1"}),
		References:   []workflow.Reference{{EmployeeID: "c1"}},
	}
	require.NoError(t, auth.SyncReportRelations(ctx, store, nil, before))

	after := before.Clone()
	after.ApprovalLine = workflow.LineOf(workflow.Reference{EmployeeID: "a1"}, workflow.Reference{EmployeeID: "d1"})
	after.References = nil
	require.NoError(t, auth.SyncReportRelations(ctx, store, before, after))

	check := func(user, relation string) bool {
		ok, err := store.CheckPermission(ctx, user, relation, auth.ObjectReport, "r1")
		require.NoError(t, err)
		return ok
	}
	assert.True(t, check("w1", auth.RelationWriter))
	assert.True(t, check("a1", auth.RelationApprover))
	assert.True(t, check("d1", auth.RelationApprover))
	assert.False(t, check("b1", auth.RelationViewer))
	assert.False(t, check("c1", auth.RelationViewer))
}

// TestCachedRelationStore 测试权限缓存及失效
func TestCachedRelationStore(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemoryRelationStore: auth.NewMemoryRelationStore()}
	cached := auth.NewCachedRelationStore(inner, auth.NewPermissionCache(time.Minute))

	ok, err := cached.CheckPermission(ctx, "a1", auth.RelationViewer, auth.ObjectReport, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _ = cached.CheckPermission(ctx, "a1", auth.RelationViewer, auth.ObjectReport, "r1")
	assert.Equal(t, 1, inner.checks)

	// 写入关系后派生的 viewer 缓存必须失效
	require.NoError(t, cached.SetRelation(ctx, "a1", auth.RelationApprover, auth.ObjectReport, "r1"))
	ok, err = cached.CheckPermission(ctx, "a1", auth.RelationViewer, auth.ObjectReport, "r1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, inner.checks)
}

// TestPermissionCacheExpiry 测试缓存过期
func TestPermissionCacheExpiry(t *testing.T) {
	cache := auth.NewPermissionCache(10 * time.Millisecond)
	cache.Set("k", true)
	v, found := cache.Get("k")
	assert.True(t, found)
	assert.True(t, v)

	time.Sleep(20 * time.Millisecond)
	_, found = cache.Get("k")
	assert.False(t, found)
}

// TestPermissionModel 测试权限模型包含报告关系
func TestPermissionModel(t *testing.T) {
	model := auth.GetPermissionModel()
	assert.Contains(t, model, "type report")
	assert.Contains(t, model, "define viewer: [user] or writer or approver or reference")
}
