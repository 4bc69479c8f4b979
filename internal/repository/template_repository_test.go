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

func templateVersion(id string, version int, name string) *model.TemplateModel {
	now := time.Now()
	return &model.TemplateModel{
		ID:      id,
		Version: version,
		Name:    name,
		Fields: []workflow.FieldSpec{
			{Key: "period", Label: "기간", Kind: workflow.KindPeriod, Required: true},
		},
		CreatedAt: now.Add(time.Duration(version) * time.Second),
		UpdatedAt: now,
	}
}

// TestTemplateRepository_Versions 测试模板版本查询
func TestTemplateRepository_Versions(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTemplateRepository(db)

	require.NoError(t, repo.Save(templateVersion("leave", 1, "휴가 v1")))
	require.NoError(t, repo.Save(templateVersion("leave", 2, "휴가 v2")))
	require.NoError(t, repo.Save(templateVersion("trip", 1, "출장")))

	latest, err := repo.FindByID("leave", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, workflow.KindPeriod, latest.Fields[0].Kind)

	v1, err := repo.FindByID("leave", 1)
	require.NoError(t, err)
	assert.Equal(t, "휴가 v1", v1.Name)

	all, err := repo.FindAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	versions, err := repo.FindVersions("leave")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)

	require.NoError(t, repo.Delete("leave"))
	_, err = repo.FindByID("leave", 0)
	assert.Error(t, err)
}

// TestAuditLogRepository 测试审计日志
func TestAuditLogRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAuditLogRepository(db)

	require.NoError(t, repo.Save(&model.AuditLogModel{ID: "l1", UserID: "w1", Action: "submit", ResourceType: "report", ResourceID: "r1", CreatedAt: time.Now()}))

	logs, err := repo.FindByResource("report", "r1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	logs, err = repo.FindByUserID("w1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
