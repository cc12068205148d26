package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/srseducares/educares-backend/events"
	"github.com/srseducares/educares-backend/models"
	"github.com/srseducares/educares-backend/pkg/metrics"
	"github.com/srseducares/educares-backend/repository"
	"github.com/srseducares/educares-backend/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GroupedMaterial 学生端裁剪后的投影，不带 filePath 和上传者引用
type GroupedMaterial struct {
	ID          uuid.UUID      `json:"_id"`
	Name        string         `json:"name"`
	UploadedOn  time.Time      `json:"uploadedOn"`
	Subject     models.Subject `json:"subject"`
	Topic       string         `json:"topic"`
	Description string         `json:"description"`
	FileName    string         `json:"fileName"`
	FileSize    int64          `json:"fileSize"`
}

// StudentSummary 响应里回显的学生档案摘要
type StudentSummary struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Course string `json:"course"`
}

// StudentMaterialList 按五类固定桶分组的学生资料清单
type StudentMaterialList struct {
	Student          StudentSummary                            `json:"student"`
	TotalMaterials   int                                       `json:"totalMaterials"`
	GroupedMaterials map[models.MaterialType][]GroupedMaterial `json:"groupedMaterials"`
}

// MaterialFile 待传输的文件流与响应头所需的元数据
type MaterialFile struct {
	Material *models.Material
	Reader   io.ReadCloser
	Size     int64
}

type StudentMaterialService interface {
	ListForStudent(ctx context.Context, studentID uuid.UUID) (*StudentMaterialList, error)
	Download(ctx context.Context, studentID, materialID uuid.UUID) (*MaterialFile, error)
	View(ctx context.Context, studentID, materialID uuid.UUID) (*MaterialFile, error)
}

type StudentMaterialServiceImpl struct {
	materials repository.MaterialRepository
	students  repository.StudentRepository
	fileStore storage.FileStore
	publisher *events.Publisher
	logger    *logrus.Logger
}

func NewStudentMaterialService(materials repository.MaterialRepository, students repository.StudentRepository, fileStore storage.FileStore, publisher *events.Publisher, logger *logrus.Logger) StudentMaterialService {
	return &StudentMaterialServiceImpl{
		materials: materials,
		students:  students,
		fileStore: fileStore,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *StudentMaterialServiceImpl) ListForStudent(ctx context.Context, studentID uuid.UUID) (*StudentMaterialList, error) {
	student, err := s.resolveStudent(studentID)
	if err != nil {
		return nil, err
	}

	materials, err := s.materials.ListActiveByCourse(student.Course)
	if err != nil {
		return nil, err
	}

	grouped := make(map[models.MaterialType][]GroupedMaterial, len(models.MaterialTypes))
	for _, t := range models.MaterialTypes {
		grouped[t] = []GroupedMaterial{}
	}
	for _, m := range materials {
		// 类型不在五类桶内的记录从分组里静默丢弃，但计入总数
		if _, ok := grouped[m.MaterialType]; !ok {
			continue
		}
		grouped[m.MaterialType] = append(grouped[m.MaterialType], GroupedMaterial{
			ID:          m.ID,
			Name:        m.Title,
			UploadedOn:  m.UploadedOn,
			Subject:     m.Subject,
			Topic:       m.Topic,
			Description: m.Description,
			FileName:    m.FileName,
			FileSize:    m.FileSize,
		})
	}

	return &StudentMaterialList{
		Student: StudentSummary{
			Name:   student.Name,
			Email:  student.Email,
			Course: student.Course,
		},
		TotalMaterials:   len(materials),
		GroupedMaterials: grouped,
	}, nil
}

func (s *StudentMaterialServiceImpl) Download(ctx context.Context, studentID, materialID uuid.UUID) (*MaterialFile, error) {
	file, err := s.fetchFile(ctx, studentID, materialID, s.materials.IncrementDownloadCount)
	if err != nil {
		metrics.RecordMaterialOperation("download", errStatus(err))
		return nil, err
	}
	metrics.RecordMaterialOperation("download", "ok")
	s.publisher.Publish(ctx, events.MaterialEvent{
		Event:      events.EventMaterialDownloaded,
		MaterialID: materialID.String(),
		ActorID:    studentID.String(),
	})
	return file, nil
}

func (s *StudentMaterialServiceImpl) View(ctx context.Context, studentID, materialID uuid.UUID) (*MaterialFile, error) {
	file, err := s.fetchFile(ctx, studentID, materialID, s.materials.IncrementViewCount)
	if err != nil {
		metrics.RecordMaterialOperation("view", errStatus(err))
		return nil, err
	}
	metrics.RecordMaterialOperation("view", "ok")
	s.publisher.Publish(ctx, events.MaterialEvent{
		Event:      events.EventMaterialViewed,
		MaterialID: materialID.String(),
		ActorID:    studentID.String(),
	})
	return file, nil
}

// fetchFile 下载与在线查看的公共路径：档案复核 -> 记录查找 ->
// 计数先行持久化 -> 文件存在性检查 -> 打开流
func (s *StudentMaterialServiceImpl) fetchFile(ctx context.Context, studentID, materialID uuid.UUID, increment func(uuid.UUID) error) (*MaterialFile, error) {
	if _, err := s.resolveStudent(studentID); err != nil {
		return nil, err
	}

	material, err := s.materials.GetByID(materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}

	// 计数失败不拦截传输：资料送达比一次统计更重要
	if err := increment(materialID); err != nil {
		s.logger.WithError(err).WithField("material_id", materialID).Warn("failed to bump access counter")
	}

	if !s.fileStore.Exists(ctx, material.FilePath) {
		return nil, ErrFileNotFound
	}

	reader, size, err := s.fileStore.Open(ctx, material.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	return &MaterialFile{Material: material, Reader: reader, Size: size}, nil
}

func (s *StudentMaterialServiceImpl) resolveStudent(studentID uuid.UUID) (*models.Student, error) {
	student, err := s.students.GetByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func errStatus(err error) string {
	switch {
	case errors.Is(err, ErrMaterialNotFound), errors.Is(err, ErrStudentNotFound), errors.Is(err, ErrFileNotFound):
		return "not_found"
	default:
		return "error"
	}
}
