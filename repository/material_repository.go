package repository

import (
	"strings"
	"time"

	"github.com/srseducares/educares-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaterialFilter 管理端列表过滤条件。空值或 "all" 表示不过滤。
type MaterialFilter struct {
	MaterialType string
	Course       string
	Subject      string
	Search       string
}

// MaterialStats 全量聚合统计
type MaterialStats struct {
	TotalMaterials int64   `json:"totalMaterials"`
	TotalViews     int64   `json:"totalViews"`
	TotalDownloads int64   `json:"totalDownloads"`
	AvgFileSize    float64 `json:"avgFileSize"`
}

type TypeCount struct {
	MaterialType string `json:"materialType"`
	Count        int64  `json:"count"`
}

type CourseCount struct {
	Course string `json:"course"`
	Count  int64  `json:"count"`
}

type MaterialRepository interface {
	BaseRepository[models.Material]
	GetByIDWithUploader(id uuid.UUID) (*models.Material, error)
	ListFiltered(filter MaterialFilter, page, pageSize int) ([]*models.Material, int64, error)
	ListActiveByCourse(course string) ([]*models.Material, error)
	UpdateFields(id uuid.UUID, updates map[string]interface{}) error
	IncrementViewCount(id uuid.UUID) error
	IncrementDownloadCount(id uuid.UUID) error
	Stats() (*MaterialStats, []TypeCount, []CourseCount, error)
}

type MaterialRepositoryImpl struct {
	*BaseRepositoryImpl[models.Material]
}

func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &MaterialRepositoryImpl{
		BaseRepositoryImpl: NewBaseRepository[models.Material](db),
	}
}

// uploaderProjection 只暴露上传者的姓名与邮箱，绝不带出密码哈希
func uploaderProjection(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "email")
}

func (r *MaterialRepositoryImpl) GetByIDWithUploader(id uuid.UUID) (*models.Material, error) {
	var material models.Material
	err := r.db.Preload("Uploader", uploaderProjection).First(&material, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *MaterialRepositoryImpl) ListFiltered(filter MaterialFilter, page, pageSize int) ([]*models.Material, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 25
	}

	query := r.db.Model(&models.Material{})

	if filter.MaterialType != "" && filter.MaterialType != "all" {
		query = query.Where("material_type = ?", strings.ToLower(filter.MaterialType))
	}
	if filter.Course != "" && filter.Course != "all" {
		query = query.Where("course = ?", strings.ToLower(filter.Course))
	}
	if filter.Subject != "" && filter.Subject != "all" {
		query = query.Where("subject = ?", strings.ToLower(filter.Subject))
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(topic) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var materials []*models.Material
	err := query.
		Preload("Uploader", uploaderProjection).
		Order("uploaded_on DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&materials).Error
	if err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

// ListActiveByCourse 选课过滤：资料 course 包含学生报名的 course，
// 大小写不敏感（course 入库时已小写）
func (r *MaterialRepositoryImpl) ListActiveByCourse(course string) ([]*models.Material, error) {
	var materials []*models.Material
	pattern := "%" + strings.ToLower(course) + "%"
	err := r.db.
		Where("is_active = ?", true).
		Where("LOWER(course) LIKE ?", pattern).
		Order("uploaded_on DESC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *MaterialRepositoryImpl) UpdateFields(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.Material{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementViewCount 存储层原子自增，避免并发读改写丢失更新
func (r *MaterialRepositoryImpl) IncrementViewCount(id uuid.UUID) error {
	return r.incrementCounter(id, "view_count")
}

func (r *MaterialRepositoryImpl) IncrementDownloadCount(id uuid.UUID) error {
	return r.incrementCounter(id, "download_count")
}

func (r *MaterialRepositoryImpl) incrementCounter(id uuid.UUID, column string) error {
	result := r.db.Model(&models.Material{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		column:             gorm.Expr(column + " + 1"),
		"last_accessed_on": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MaterialRepositoryImpl) Stats() (*MaterialStats, []TypeCount, []CourseCount, error) {
	var stats MaterialStats
	err := r.db.Model(&models.Material{}).
		Select("COUNT(*) AS total_materials, COALESCE(SUM(view_count), 0) AS total_views, COALESCE(SUM(download_count), 0) AS total_downloads, COALESCE(AVG(file_size), 0) AS avg_file_size").
		Scan(&stats).Error
	if err != nil {
		return nil, nil, nil, err
	}

	var byType []TypeCount
	err = r.db.Model(&models.Material{}).
		Select("material_type, COUNT(*) AS count").
		Group("material_type").
		Scan(&byType).Error
	if err != nil {
		return nil, nil, nil, err
	}

	var byCourse []CourseCount
	err = r.db.Model(&models.Material{}).
		Select("course, COUNT(*) AS count").
		Group("course").
		Scan(&byCourse).Error
	if err != nil {
		return nil, nil, nil, err
	}

	return &stats, byType, byCourse, nil
}
