package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/srseducares/educares-backend/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore 把上传文件存进 MinIO 对象存储
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg config.MinIOConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// 确保存储桶存在
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.BucketName}, nil
}

func (s *MinioStore) Save(ctx context.Context, r io.Reader, originalName string, size int64, contentType string) (*StoredFile, error) {
	if err := checkUpload(originalName, size, contentType); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("materials/%s.pdf", uuid.New().String())
	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to MinIO: %w", err)
	}

	return &StoredFile{Path: objectName, OriginalName: originalName, Size: info.Size}, nil
}

func (s *MinioStore) Exists(ctx context.Context, path string) bool {
	_, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	return err == nil
}

func (s *MinioStore) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, ErrNotFound
	}
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, stat.Size, nil
}

func (s *MinioStore) Remove(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}
