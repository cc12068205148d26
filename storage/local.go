package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/srseducares/educares-backend/models"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// LocalStore 把上传文件写到本地磁盘目录
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, originalName string, size int64, contentType string) (*StoredFile, error) {
	if err := checkUpload(originalName, size, contentType); err != nil {
		return nil, err
	}

	name := generateObjectName(originalName)
	fullPath := filepath.Join(s.dir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// size 来自客户端声明，复制时再按上限校验一次
	written, err := io.Copy(f, io.LimitReader(r, models.MaxFileSize+1))
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if written > models.MaxFileSize {
		os.Remove(fullPath)
		return nil, ErrTooLarge
	}

	return &StoredFile{Path: name, OriginalName: originalName, Size: written}, nil
}

func (s *LocalStore) Exists(ctx context.Context, path string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filepath.Clean(path)))
	return err == nil
}

func (s *LocalStore) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	fullPath := filepath.Join(s.dir, filepath.Clean(path))
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, 0, ErrNotFound
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info.Size(), nil
}

func (s *LocalStore) Remove(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Clean(path)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func checkUpload(originalName string, size int64, contentType string) error {
	if strings.ToLower(filepath.Ext(originalName)) != ".pdf" {
		return ErrRejectedType
	}
	if contentType != "" && contentType != "application/pdf" {
		return ErrRejectedType
	}
	if size > models.MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// generateObjectName 按原始文件名生成防碰撞存储名：
// 清洗后的主名 + 毫秒时间戳 + 随机后缀
func generateObjectName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	sanitized := unsafeChars.ReplaceAllString(base, "_")
	return fmt.Sprintf("%s_%d-%d%s", sanitized, time.Now().UnixMilli(), rand.Int63n(1e9), ext)
}
