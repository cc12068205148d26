package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrRejectedType = errors.New("only PDF files are allowed")
	ErrTooLarge     = errors.New("file size cannot exceed 10MB")
	ErrNotFound     = errors.New("file not found in storage")
)

// StoredFile 保存成功后返回的定位信息
type StoredFile struct {
	Path         string
	OriginalName string
	Size         int64
}

// FileStore 上传文件的持久化边界。PDF 与 10MB 限制在 Save 处强制。
type FileStore interface {
	Save(ctx context.Context, r io.Reader, originalName string, size int64, contentType string) (*StoredFile, error)
	Exists(ctx context.Context, path string) bool
	Open(ctx context.Context, path string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, path string) error
}
