package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 本地磁盘存储,开发和测试环境使用
type LocalStore struct {
	root string
}

// NewLocalStore 创建本地存储
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = "./data/attachments"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{root: dir}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Put 写入文件,内容类型保存在同名 .meta 文件中
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(p)
		return nil, fmt.Errorf("upload file: %w", err)
	}
	if size >= 0 && written != size {
		_ = os.Remove(p)
		return nil, fmt.Errorf("upload file: expected %d bytes, got %d", size, written)
	}
	info := &ObjectInfo{Key: key, Size: written, ContentType: contentType}
	meta, _ := json.Marshal(info)
	if err := os.WriteFile(p+".meta", meta, 0o644); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	return info, nil
}

// Get 读取文件
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	info := &ObjectInfo{Key: key}
	if meta, err := os.ReadFile(p + ".meta"); err == nil {
		_ = json.Unmarshal(meta, info)
	}
	if st, err := f.Stat(); err == nil {
		info.Size = st.Size()
	}
	return f, info, nil
}

// Delete 删除文件,不存在时忽略
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	for _, name := range []string{p, p + ".meta"} {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove object: %w", err)
		}
	}
	return nil
}
