package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCommand 测试根命令注册的子命令
func TestRootCommand(t *testing.T) {
	root := GetRootCmd()
	assert.Equal(t, "hrhub-approval", root.Use)

	for _, path := range [][]string{
		{"server"},
		{"migrate"},
		{"report", "submit"},
		{"report", "approve"},
		{"report", "resubmit"},
		{"report", "schedule"},
		{"report", "edit"},
		{"template", "list"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

// TestPromptDecider 测试终端询问的输入解析
func TestPromptDecider(t *testing.T) {
	tests := []struct {
		input string
		want  editor.Decision
	}{
		{"s\n", editor.DecisionSave},
		{"Discard\n", editor.DecisionDiscard},
		{"x\nc\n", editor.DecisionCancel},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		d := promptDecider(strings.NewReader(tt.input), &out)
		got, err := d.Decide(context.Background(), "exit")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Contains(t, out.String(), "unsaved changes")
	}

	_, err := promptDecider(strings.NewReader(""), &bytes.Buffer{}).Decide(context.Background(), "exit")
	assert.Error(t, err)
}

// TestReadDraft 测试从文件读取报告内容
func TestReadDraft(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	body := `{"title":"Leave Request","content":{"body":"1 day"},"approvalLine":[{"employeeId":"a1"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	d, err := readDraft(path)
	require.NoError(t, err)
	assert.Equal(t, "Leave Request", d.Title)
	assert.Equal(t, "1 day", d.Content.Body)
	require.Len(t, d.ApprovalLine, 1)
	assert.Equal(t, "a1", d.ApprovalLine[0].EmployeeID)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = readDraft(path)
	assert.Error(t, err)
}

// TestClientConfig 测试命令行参数覆盖配置文件中的连接参数
func TestClientConfig(t *testing.T) {
	saved := clientOpts
	defer func() { clientOpts = saved }()

	cfg := config.Default()
	clientOpts = clientFlags{}
	cfg.Client.BaseURL = ""
	_, err := clientConfig(cfg)
	assert.Error(t, err)

	cfg.Client.BaseURL = "http://config"
	cfg.Client.EmployeeID = "w1"
	clientOpts = clientFlags{server: "http://flag", name: "Writer"}
	cc, err := clientConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://flag", cc.BaseURL)
	assert.Equal(t, "w1", cc.EmployeeID)
	assert.Equal(t, "Writer", cc.Name)
}
