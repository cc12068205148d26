package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MaxFileSize 单个资料文件的上限 (10MB)
const MaxFileSize = 10 * 1024 * 1024

type MaterialType string

const (
	MaterialTypeStudyMaterial  MaterialType = "study-material"
	MaterialTypeExercise       MaterialType = "exercise"
	MaterialTypeRace           MaterialType = "race"
	MaterialTypeSpecialBooklet MaterialType = "special-booklet"
	MaterialTypeClassNotes     MaterialType = "class-notes"
)

// MaterialTypes 固定的五类资料，学生端分组也按此顺序输出
var MaterialTypes = []MaterialType{
	MaterialTypeStudyMaterial,
	MaterialTypeExercise,
	MaterialTypeRace,
	MaterialTypeSpecialBooklet,
	MaterialTypeClassNotes,
}

// ParseMaterialType 小写化并校验资料类型
func ParseMaterialType(s string) (MaterialType, error) {
	t := MaterialType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range MaterialTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%q is not a valid material type", s)
}

type Subject string

const (
	SubjectPhysics     Subject = "physics"
	SubjectChemistry   Subject = "chemistry"
	SubjectBotany      Subject = "botany"
	SubjectZoology     Subject = "zoology"
	SubjectMathematics Subject = "mathematics"
	SubjectScience     Subject = "science"
	SubjectBiology     Subject = "biology"
)

var Subjects = []Subject{
	SubjectPhysics,
	SubjectChemistry,
	SubjectBotany,
	SubjectZoology,
	SubjectMathematics,
	SubjectScience,
	SubjectBiology,
}

func ParseSubject(s string) (Subject, error) {
	sub := Subject(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Subjects {
		if sub == known {
			return sub, nil
		}
	}
	return "", fmt.Errorf("%q is not a valid subject", s)
}

// Material 学习资料记录
type Material struct {
	Base
	MaterialType MaterialType `gorm:"not null;index" json:"materialType"`
	Course       string       `gorm:"not null;index" json:"course"`
	Subject      Subject      `gorm:"not null;index" json:"subject"`
	Topic        string       `gorm:"not null" json:"topic"`
	Title        string       `gorm:"not null;index" json:"title"`
	Description  string       `gorm:"type:text;default:''" json:"description"`
	FilePath     string       `gorm:"not null" json:"filePath"`
	FileName     string       `gorm:"not null" json:"fileName"`
	FileSize     int64        `gorm:"not null" json:"fileSize"`
	UploadedBy   uuid.UUID    `gorm:"type:uuid;not null;index" json:"uploadedBy"`
	Uploader     *User        `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
	UploadedOn   time.Time    `gorm:"index" json:"uploadedOn"`
	// 无列默认值：false 是合法写入值，默认 true 由创建方显式给出
	IsActive       bool           `gorm:"index" json:"isActive"`
	ViewCount      int64          `gorm:"default:0" json:"viewCount"`
	DownloadCount  int64          `gorm:"default:0" json:"downloadCount"`
	LastAccessedOn *time.Time     `json:"lastAccessedOn,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}
