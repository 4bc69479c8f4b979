package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalStore 测试本地存储读写删除
func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	info, err := store.Put(ctx, "reports/r1/a.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)

	rc, got, err := store.Get(ctx, "reports/r1/a.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "text/plain", got.ContentType)

	require.NoError(t, store.Delete(ctx, "reports/r1/a.txt"))
	_, _, err = store.Get(ctx, "reports/r1/a.txt")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	// 重复删除不报错
	assert.NoError(t, store.Delete(ctx, "reports/r1/a.txt"))
}

// TestLocalStoreRejectsEscape 测试拒绝越过根目录的键
func TestLocalStoreRejectsEscape(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../etc/passwd", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}

// TestLocalStoreSizeMismatch 测试大小不一致
func TestLocalStoreSizeMismatch(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "a.txt", strings.NewReader("abc"), 10, "")
	assert.Error(t, err)
}

// TestNew 测试按驱动创建存储
func TestNew(t *testing.T) {
	s, err := storage.New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStore{}, s)

	s, err = storage.New(config.StorageConfig{Driver: "minio", Endpoint: "localhost:9000", Bucket: "attachments"})
	require.NoError(t, err)
	assert.IsType(t, &storage.MinIOStore{}, s)

	_, err = storage.New(config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

// TestObjectKey 测试对象键格式
func TestObjectKey(t *testing.T) {
	key := storage.ObjectKey("r1", "Report.PDF", time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "reports/r1/2024/03/04/"), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
}
