package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/srseducares/educares-backend/middleware"
	"github.com/srseducares/educares-backend/repository"
	"github.com/srseducares/educares-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// MaterialHandler 管理端资料操作
type MaterialHandler struct {
	materials service.MaterialService
	logger    *logrus.Logger
}

func NewMaterialHandler(materials service.MaterialService, logger *logrus.Logger) *MaterialHandler {
	return &MaterialHandler{materials: materials, logger: logger}
}

// Upload 上传资料
// POST /materials/upload
func (h *MaterialHandler) Upload(c *gin.Context) {
	uploaderID, ok := callerID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "please upload a PDF file"})
		return
	}
	defer file.Close()

	input := service.UploadInput{
		MaterialType: c.PostForm("materialType"),
		Course:       c.PostForm("course"),
		Subject:      c.PostForm("subject"),
		Topic:        c.PostForm("topic"),
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		File:         file,
		FileName:     header.Filename,
		FileSize:     header.Size,
		ContentType:  header.Header.Get("Content-Type"),
	}
	if raw := c.PostForm("metadata"); raw != "" {
		input.Metadata = datatypes.JSON(raw)
	}

	material, err := h.materials.Upload(c.Request.Context(), input, uploaderID)
	if err != nil {
		respondError(c, h.logger, err, "failed to upload material")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"material_id": material.ID,
		"uploader":    uploaderID,
		"size":        material.FileSize,
	}).Info("material uploaded")

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "material uploaded successfully",
		"material": material,
	})
}

// List 资料列表（过滤 + 分页）
// GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 25)

	filter := repository.MaterialFilter{
		MaterialType: c.Query("materialType"),
		Course:       c.Query("course"),
		Subject:      c.Query("subject"),
		Search:       c.Query("search"),
	}

	materials, total, err := h.materials.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, h.logger, err, "failed to fetch materials")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       total,
		"totalPages":  int(math.Ceil(float64(total) / float64(limit))),
		"currentPage": page,
		"materials":   materials,
	})
}

// Stats 统计汇总
// GET /materials/stats
func (h *MaterialHandler) Stats(c *gin.Context) {
	result, err := h.materials.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to get statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"stats":    result.Stats,
		"byType":   result.ByType,
		"byCourse": result.ByCourse,
	})
}

// GetByID 单条资料
// GET /materials/:id
func (h *MaterialHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	material, err := h.materials.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "failed to get material")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "material": material})
}

// Update 部分更新，可选替换文件
// PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input service.UpdateInput
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		input = service.UpdateInput{
			Title:        c.PostForm("title"),
			Description:  c.PostForm("description"),
			Topic:        c.PostForm("topic"),
			MaterialType: c.PostForm("materialType"),
			Course:       c.PostForm("course"),
			Subject:      c.PostForm("subject"),
		}
		// isActive=false 必须生效：按字段是否出现判断，不做 falsy 检查
		if raw, present := c.GetPostForm("isActive"); present {
			active := raw == "true" || raw == "1"
			input.IsActive = &active
		}
		if file, header, err := c.Request.FormFile("file"); err == nil {
			defer file.Close()
			input.File = file
			input.FileName = header.Filename
			input.FileSize = header.Size
			input.ContentType = header.Header.Get("Content-Type")
		}
	} else {
		var body struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			Topic        string `json:"topic"`
			MaterialType string `json:"materialType"`
			Course       string `json:"course"`
			Subject      string `json:"subject"`
			IsActive     *bool  `json:"isActive"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
			return
		}
		input = service.UpdateInput{
			Title:        body.Title,
			Description:  body.Description,
			Topic:        body.Topic,
			MaterialType: body.MaterialType,
			Course:       body.Course,
			Subject:      body.Subject,
			IsActive:     body.IsActive,
		}
	}

	material, err := h.materials.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, h.logger, err, "failed to update material")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "material updated successfully",
		"material": material,
	})
}

// Delete 删除资料与底层文件
// DELETE /materials/:id
func (h *MaterialHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.materials.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err, "failed to delete material")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "material deleted successfully"})
}

func callerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(middleware.ContextUserID)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not authenticated"})
		return uuid.Nil, false
	}
	return id, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid material id"})
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
