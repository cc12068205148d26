package handler

import (
	"fmt"
	"net/http"

	"github.com/srseducares/educares-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StudentMaterialHandler 学生端资料操作
type StudentMaterialHandler struct {
	materials service.StudentMaterialService
	logger    *logrus.Logger
}

func NewStudentMaterialHandler(materials service.StudentMaterialService, logger *logrus.Logger) *StudentMaterialHandler {
	return &StudentMaterialHandler{materials: materials, logger: logger}
}

// List 按选课过滤并按五类分组
// GET /student/materials
func (h *StudentMaterialHandler) List(c *gin.Context) {
	studentID, ok := callerID(c)
	if !ok {
		return
	}

	list, err := h.materials.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, h.logger, err, "failed to fetch materials")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"student":          list.Student,
		"totalMaterials":   list.TotalMaterials,
		"groupedMaterials": list.GroupedMaterials,
	})
}

// Download 附件下载，计数先于传输持久化
// GET /student/materials/download/:id
func (h *StudentMaterialHandler) Download(c *gin.Context) {
	h.stream(c, false)
}

// View 浏览器内联打开
// GET /student/materials/view/:id
func (h *StudentMaterialHandler) View(c *gin.Context) {
	h.stream(c, true)
}

func (h *StudentMaterialHandler) stream(c *gin.Context, inline bool) {
	studentID, ok := callerID(c)
	if !ok {
		return
	}
	materialID, ok := pathID(c)
	if !ok {
		return
	}

	var (
		file *service.MaterialFile
		err  error
	)
	if inline {
		file, err = h.materials.View(c.Request.Context(), studentID, materialID)
	} else {
		file, err = h.materials.Download(c.Request.Context(), studentID, materialID)
	}
	if err != nil {
		respondError(c, h.logger, err, "failed to serve material")
		return
	}
	defer file.Reader.Close()

	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf(`%s; filename="%s"`, disposition, file.Material.FileName),
	}
	c.DataFromReader(http.StatusOK, file.Size, "application/pdf", file.Reader, extraHeaders)
}
