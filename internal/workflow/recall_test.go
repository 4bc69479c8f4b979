package workflow_test

import (
	"testing"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecall 测试撤回
func TestRecall(t *testing.T) {
	doc := submitted(t)

	ok, err := workflow.CanRecall(doc, writer)
	require.NoError(t, err)
	assert.True(t, ok)

	recalled, err := workflow.Recall(doc, writer, t0)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRecalled, recalled.Status)
	assert.True(t, recalled.Status.IsTerminal())
	assert.Equal(t, workflow.StatusInProgress, doc.Status)
}

// TestRecall_AfterFirstApproval 测试第一位审批人同意后撤回返回 ForbiddenError
func TestRecall_AfterFirstApproval(t *testing.T) {
	doc := submitted(t)
	doc, err := workflow.Approve(doc, alice, "", t0)
	require.NoError(t, err)

	_, err = workflow.Recall(doc, writer, t0)
	require.Error(t, err)
	assert.True(t, workflow.IsForbidden(err))
}

// TestRecall_Preconditions 测试非作者和非进行中状态
func TestRecall_Preconditions(t *testing.T) {
	doc := submitted(t)
	_, err := workflow.Recall(doc, alice, t0)
	assert.True(t, workflow.IsForbidden(err))

	draft, err := workflow.SaveDraft(nil, workflow.Draft{Title: "x"}, writer, t0)
	require.NoError(t, err)
	_, err = workflow.Recall(draft, writer, t0)
	var illegal *workflow.IllegalTransitionError
	assert.ErrorAs(t, err, &illegal)
}
