package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
)

const (
	// ObjectReport 报告对象类型
	ObjectReport = "report"
	// ObjectTemplate 模板对象类型
	ObjectTemplate = "template"

	RelationWriter    = "writer"
	RelationApprover  = "approver"
	RelationReference = "reference"
	RelationViewer    = "viewer"
	RelationOwner     = "owner"
)

// ReportTuples 根据文档计算应存在的 (user, relation) 元组
func ReportTuples(doc *workflow.ReportDocument) map[string]string {
	tuples := make(map[string]string)
	for _, r := range doc.References {
		tuples[r.EmployeeID] = RelationReference
	}
	for _, e := range doc.ApprovalLine {
		tuples[e.EmployeeID] = RelationApprover
	}
	tuples[doc.WriterID] = RelationWriter
	return tuples
}

// SyncReportRelations 把文档的作者、审批人、参阅人同步到关系存储
// before 为空表示新文档；存储支持 TupleWriter 时一次写入
func SyncReportRelations(ctx context.Context, store RelationStore, before, after *workflow.ReportDocument) error {
	if store == nil {
		return nil
	}
	want := ReportTuples(after)
	have := map[string]string{}
	if before != nil {
		have = ReportTuples(before)
	}
	var writes, deletes []Tuple
	for user, rel := range have {
		if want[user] != rel {
			deletes = append(deletes, Tuple{user, rel, ObjectReport, after.ID})
		}
	}
	for user, rel := range want {
		if have[user] != rel {
			writes = append(writes, Tuple{user, rel, ObjectReport, after.ID})
		}
	}
	return writeTuples(ctx, store, writes, deletes)
}

func writeTuples(ctx context.Context, store RelationStore, writes, deletes []Tuple) error {
	if w, ok := store.(TupleWriter); ok {
		return w.WriteTuples(ctx, writes, deletes)
	}
	for _, t := range deletes {
		if err := store.DeleteRelation(ctx, t.UserID, t.Relation, t.ObjectType, t.ObjectID); err != nil {
			return err
		}
	}
	for _, t := range writes {
		if err := store.SetRelation(ctx, t.UserID, t.Relation, t.ObjectType, t.ObjectID); err != nil {
			return err
		}
	}
	return nil
}

// MemoryRelationStore 进程内的关系存储,未启用 OpenFGA 时使用
// viewer 由 writer/approver/reference 派生,与 GetPermissionModel 一致
type MemoryRelationStore struct {
	mu     sync.RWMutex
	tuples map[string]bool
}

// NewMemoryRelationStore 创建内存关系存储
func NewMemoryRelationStore() *MemoryRelationStore {
	return &MemoryRelationStore{tuples: make(map[string]bool)}
}

func tupleKey(userID, relation, objectType, objectID string) string {
	return fmt.Sprintf("%s#%s@%s:%s", userID, relation, objectType, objectID)
}

// CheckPermission 检查权限
func (m *MemoryRelationStore) CheckPermission(_ context.Context, userID, relation, objectType, objectID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tuples[tupleKey(userID, relation, objectType, objectID)] {
		return true, nil
	}
	if relation != RelationViewer {
		return false, nil
	}
	for _, derived := range []string{RelationWriter, RelationApprover, RelationReference, RelationOwner} {
		if m.tuples[tupleKey(userID, derived, objectType, objectID)] {
			return true, nil
		}
	}
	return false, nil
}

// SetRelation 设置权限关系
func (m *MemoryRelationStore) SetRelation(_ context.Context, userID, relation, objectType, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tuples[tupleKey(userID, relation, objectType, objectID)] = true
	return nil
}

// DeleteRelation 删除权限关系
func (m *MemoryRelationStore) DeleteRelation(_ context.Context, userID, relation, objectType, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tuples, tupleKey(userID, relation, objectType, objectID))
	return nil
}
