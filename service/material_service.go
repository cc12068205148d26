package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/srseducares/educares-backend/events"
	"github.com/srseducares/educares-backend/models"
	"github.com/srseducares/educares-backend/pkg/metrics"
	"github.com/srseducares/educares-backend/repository"
	"github.com/srseducares/educares-backend/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UploadInput 管理员上传请求
type UploadInput struct {
	MaterialType string
	Course       string
	Subject      string
	Topic        string
	Title        string
	Description  string
	Metadata     datatypes.JSON

	File        io.Reader
	FileName    string
	FileSize    int64
	ContentType string
}

// UpdateInput 部分更新。字符串字段为空表示保持不变；IsActive 用指针
// 区分 "未提供" 与显式 false。
type UpdateInput struct {
	Title        string
	Description  string
	Topic        string
	MaterialType string
	Course       string
	Subject      string
	IsActive     *bool

	File        io.Reader
	FileName    string
	FileSize    int64
	ContentType string
}

// StatsResult 管理端统计汇总
type StatsResult struct {
	Stats    *repository.MaterialStats `json:"stats"`
	ByType   []repository.TypeCount    `json:"byType"`
	ByCourse []repository.CourseCount  `json:"byCourse"`
}

type MaterialService interface {
	Upload(ctx context.Context, input UploadInput, uploadedBy uuid.UUID) (*models.Material, error)
	List(ctx context.Context, filter repository.MaterialFilter, page, pageSize int) ([]*models.Material, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Material, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Material, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*StatsResult, error)
}

type MaterialServiceImpl struct {
	repo      repository.MaterialRepository
	fileStore storage.FileStore
	publisher *events.Publisher
	logger    *logrus.Logger
}

func NewMaterialService(repo repository.MaterialRepository, fileStore storage.FileStore, publisher *events.Publisher, logger *logrus.Logger) MaterialService {
	return &MaterialServiceImpl{
		repo:      repo,
		fileStore: fileStore,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *MaterialServiceImpl) Upload(ctx context.Context, input UploadInput, uploadedBy uuid.UUID) (*models.Material, error) {
	if input.File == nil {
		return nil, NewValidationError("please upload a PDF file")
	}

	materialType, course, subject, topic, title, description, err := validateMaterialFields(
		input.MaterialType, input.Course, input.Subject, input.Topic, input.Title, input.Description, true)
	if err != nil {
		return nil, err
	}

	// 校验全部通过后才落盘；此后任何失败都要清掉刚存的文件
	stored, err := s.fileStore.Save(ctx, input.File, input.FileName, input.FileSize, input.ContentType)
	if err != nil {
		return nil, err
	}

	material := &models.Material{
		MaterialType: materialType,
		Course:       course,
		Subject:      subject,
		Topic:        topic,
		Title:        title,
		Description:  description,
		FilePath:     stored.Path,
		FileName:     stored.OriginalName,
		FileSize:     stored.Size,
		UploadedBy:   uploadedBy,
		UploadedOn:   time.Now(),
		IsActive:     true,
		Metadata:     input.Metadata,
	}

	if err := s.repo.Create(material); err != nil {
		s.removeStored(ctx, stored.Path)
		metrics.RecordMaterialOperation("upload", "error")
		return nil, fmt.Errorf("failed to save material record: %w", err)
	}

	metrics.RecordMaterialOperation("upload", "ok")
	metrics.MaterialBytesStored.Add(float64(stored.Size))
	s.publisher.Publish(ctx, events.MaterialEvent{
		Event:      events.EventMaterialUploaded,
		MaterialID: material.ID.String(),
		ActorID:    uploadedBy.String(),
		Course:     material.Course,
	})

	return material, nil
}

func (s *MaterialServiceImpl) List(ctx context.Context, filter repository.MaterialFilter, page, pageSize int) ([]*models.Material, int64, error) {
	return s.repo.ListFiltered(filter, page, pageSize)
}

func (s *MaterialServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	material, err := s.repo.GetByIDWithUploader(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	return material, nil
}

func (s *MaterialServiceImpl) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Material, error) {
	material, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}

	if input.Title != "" {
		title := strings.TrimSpace(input.Title)
		if len(title) < 3 || len(title) > 200 {
			return nil, NewValidationError("title must be between 3 and 200 characters")
		}
		material.Title = title
	}
	if input.Description != "" {
		if len(input.Description) > 1000 {
			return nil, NewValidationError("description cannot exceed 1000 characters")
		}
		material.Description = strings.TrimSpace(input.Description)
	}
	if input.Topic != "" {
		topic := strings.TrimSpace(input.Topic)
		if len(topic) > 200 {
			return nil, NewValidationError("topic cannot exceed 200 characters")
		}
		material.Topic = topic
	}
	if input.MaterialType != "" {
		materialType, err := models.ParseMaterialType(input.MaterialType)
		if err != nil {
			return nil, NewValidationError(err.Error())
		}
		material.MaterialType = materialType
	}
	if input.Course != "" {
		material.Course = strings.ToLower(strings.TrimSpace(input.Course))
	}
	if input.Subject != "" {
		subject, err := models.ParseSubject(input.Subject)
		if err != nil {
			return nil, NewValidationError(err.Error())
		}
		material.Subject = subject
	}
	// 显式 false 也要生效，靠指针判断字段是否出现
	if input.IsActive != nil {
		material.IsActive = *input.IsActive
	}

	// 带替换文件的更新：新文件先存，记录提交成功后才删旧文件；
	// 提交失败则删新文件，旧文件保持被引用
	oldPath := ""
	if input.File != nil {
		stored, err := s.fileStore.Save(ctx, input.File, input.FileName, input.FileSize, input.ContentType)
		if err != nil {
			return nil, err
		}
		oldPath = material.FilePath
		material.FilePath = stored.Path
		material.FileName = stored.OriginalName
		material.FileSize = stored.Size
	}

	if err := s.repo.Update(material); err != nil {
		if input.File != nil {
			s.removeStored(ctx, material.FilePath)
		}
		metrics.RecordMaterialOperation("update", "error")
		return nil, fmt.Errorf("failed to update material: %w", err)
	}

	if oldPath != "" && oldPath != material.FilePath {
		s.removeStored(ctx, oldPath)
	}

	metrics.RecordMaterialOperation("update", "ok")
	s.publisher.Publish(ctx, events.MaterialEvent{
		Event:      events.EventMaterialUpdated,
		MaterialID: material.ID.String(),
		Course:     material.Course,
	})

	return material, nil
}

func (s *MaterialServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	material, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}

	// 先删文件：失败只记日志，不阻塞记录删除
	if s.fileStore.Exists(ctx, material.FilePath) {
		if err := s.fileStore.Remove(ctx, material.FilePath); err != nil {
			s.logger.WithError(err).WithField("material_id", id).Warn("failed to remove backing file")
		}
	}

	if err := s.repo.Delete(id); err != nil {
		metrics.RecordMaterialOperation("delete", "error")
		return fmt.Errorf("failed to delete material: %w", err)
	}

	metrics.RecordMaterialOperation("delete", "ok")
	s.publisher.Publish(ctx, events.MaterialEvent{
		Event:      events.EventMaterialDeleted,
		MaterialID: id.String(),
		Course:     material.Course,
	})
	return nil
}

func (s *MaterialServiceImpl) Stats(ctx context.Context) (*StatsResult, error) {
	stats, byType, byCourse, err := s.repo.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to compute material stats: %w", err)
	}
	return &StatsResult{Stats: stats, ByType: byType, ByCourse: byCourse}, nil
}

func (s *MaterialServiceImpl) removeStored(ctx context.Context, path string) {
	if err := s.fileStore.Remove(ctx, path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("failed to clean up stored file")
	}
}

// validateMaterialFields 统一的字段校验与归一化
func validateMaterialFields(rawType, rawCourse, rawSubject, rawTopic, rawTitle, rawDescription string, required bool) (models.MaterialType, string, models.Subject, string, string, string, error) {
	if required && (rawType == "" || rawCourse == "" || rawSubject == "" || rawTopic == "" || rawTitle == "") {
		return "", "", "", "", "", "", NewValidationError("all fields are required")
	}

	materialType, err := models.ParseMaterialType(rawType)
	if err != nil {
		return "", "", "", "", "", "", NewValidationError(err.Error())
	}
	subject, err := models.ParseSubject(rawSubject)
	if err != nil {
		return "", "", "", "", "", "", NewValidationError(err.Error())
	}

	course := strings.ToLower(strings.TrimSpace(rawCourse))
	if course == "" {
		return "", "", "", "", "", "", NewValidationError("course is required")
	}

	topic := strings.TrimSpace(rawTopic)
	if topic == "" || len(topic) > 200 {
		return "", "", "", "", "", "", NewValidationError("topic is required and cannot exceed 200 characters")
	}

	title := strings.TrimSpace(rawTitle)
	if len(title) < 3 || len(title) > 200 {
		return "", "", "", "", "", "", NewValidationError("title must be between 3 and 200 characters")
	}

	description := strings.TrimSpace(rawDescription)
	if len(description) > 1000 {
		return "", "", "", "", "", "", NewValidationError("description cannot exceed 1000 characters")
	}

	return materialType, course, subject, topic, title, description, nil
}
