package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
)

// ErrObjectNotFound 对象不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo 已保存对象的描述
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Store 附件字节存储
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// New 按配置创建存储
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "minio":
		return NewMinIOStore(cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ObjectKey 生成附件对象键: reports/<report>/<yyyy/mm/dd>/<uuid><ext>
func ObjectKey(reportID, fileName string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return path.Join("reports", reportID, at.UTC().Format("2006/01/02"), uuid.New().String()+ext)
}
