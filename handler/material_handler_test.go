package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/srseducares/educares-backend/handler"
	"github.com/srseducares/educares-backend/middleware"
	"github.com/srseducares/educares-backend/models"
	"github.com/srseducares/educares-backend/repository"
	"github.com/srseducares/educares-backend/router"
	"github.com/srseducares/educares-backend/service"
	"github.com/srseducares/educares-backend/storage"
	"github.com/srseducares/educares-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret"

type apiFixture struct {
	db           *gorm.DB
	store        *storage.LocalStore
	router       *gin.Engine
	materialRepo repository.MaterialRepository

	admin        *models.User
	student      *models.Student
	adminToken   string
	studentToken string
}

func newAPIFixture(t *testing.T) *apiFixture {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Student{}, &models.Material{}))

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)

	authService := service.NewAuthService(userRepo, studentRepo, testSecret, 60)
	materialService := service.NewMaterialService(materialRepo, store, nil, log)
	studentService := service.NewStudentMaterialService(materialRepo, studentRepo, store, nil, log)

	admin := &models.User{Username: "admin", Email: "admin@srseducares.in", Phone: "9000000000", Password: "hash", IsAdmin: true}
	require.NoError(t, db.Create(admin).Error)
	student := &models.Student{Name: "Asha", Email: "asha@example.com", Course: "NEET 2025", Password: "hash"}
	require.NoError(t, db.Create(student).Error)

	adminToken, err := utils.GenerateToken(testSecret, admin.ID.String(), admin.Email, admin.Username, utils.RoleAdmin, 60)
	require.NoError(t, err)
	studentToken, err := utils.GenerateToken(testSecret, student.ID.String(), student.Email, student.Name, utils.RoleStudent, 60)
	require.NoError(t, err)

	r := router.Setup(
		middleware.NewAuthenticator(authService),
		handler.NewAuthHandler(authService, log),
		handler.NewMaterialHandler(materialService, log),
		handler.NewStudentMaterialHandler(studentService, log),
	)

	return &apiFixture{
		db:           db,
		store:        store,
		router:       r,
		materialRepo: materialRepo,
		admin:        admin,
		student:      student,
		adminToken:   adminToken,
		studentToken: studentToken,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func uploadForm(t *testing.T, fields map[string]string, fileField, fileName, fileBody string) (*bytes.Buffer, string) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(fileBody))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"materialType": "study-material",
		"course":       "NEET 2025",
		"subject":      "physics",
		"topic":        "Kinematics",
		"title":        "Motion in a Straight Line",
		"description":  "chapter one",
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (f *apiFixture) uploadMaterial(t *testing.T) string {
	buf, ct := uploadForm(t, validFields(), "file", "motion.pdf", "%PDF body")
	w := f.do(t, http.MethodPost, "/materials/upload", f.adminToken, buf, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	material := body["material"].(map[string]interface{})
	return material["id"].(string)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/materials", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/materials", "garbage-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHeaderWithoutBearerSchemeRejected(t *testing.T) {
	f := newAPIFixture(t)

	// 有效 token 但缺 "Bearer " 前缀，不能放行
	req := httptest.NewRequest(http.MethodGet, "/materials", nil)
	req.Header.Set("Authorization", f.adminToken)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectStudentRole(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/materials", f.studentToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentRoutesRejectAdminRole(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/student/materials", f.adminToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadMaterial(t *testing.T) {
	f := newAPIFixture(t)

	buf, ct := uploadForm(t, validFields(), "file", "motion.pdf", "%PDF body")
	w := f.do(t, http.MethodPost, "/materials/upload", f.adminToken, buf, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	material := body["material"].(map[string]interface{})
	assert.Equal(t, "neet 2025", material["course"])
	assert.Equal(t, "motion.pdf", material["fileName"])
	assert.EqualValues(t, 0, material["viewCount"])
	assert.Equal(t, f.admin.ID.String(), material["uploadedBy"])
}

func TestUploadMissingTitle(t *testing.T) {
	f := newAPIFixture(t)

	fields := validFields()
	delete(fields, "title")
	buf, ct := uploadForm(t, fields, "file", "motion.pdf", "%PDF body")
	w := f.do(t, http.MethodPost, "/materials/upload", f.adminToken, buf, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, f.db.Model(&models.Material{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadMissingFile(t *testing.T) {
	f := newAPIFixture(t)

	buf, ct := uploadForm(t, validFields(), "", "", "")
	w := f.do(t, http.MethodPost, "/materials/upload", f.adminToken, buf, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	f := newAPIFixture(t)

	buf, ct := uploadForm(t, validFields(), "file", "notes.docx", "not a pdf")
	w := f.do(t, http.MethodPost, "/materials/upload", f.adminToken, buf, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMaterialsWithFilter(t *testing.T) {
	f := newAPIFixture(t)
	f.uploadMaterial(t)

	w := f.do(t, http.MethodGet, "/materials?course=NEET+2025&page=1&limit=10", f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
	assert.EqualValues(t, 1, body["totalPages"])

	w = f.do(t, http.MethodGet, "/materials?course=jee+2026", f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.EqualValues(t, 0, body["count"])
}

func TestGetMaterialByID(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	w := f.do(t, http.MethodGet, "/materials/"+id, f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	material := body["material"].(map[string]interface{})
	assert.Equal(t, id, material["id"])

	// 上传者投影只含姓名邮箱
	uploader := material["uploader"].(map[string]interface{})
	assert.Equal(t, "admin", uploader["username"])
	assert.Equal(t, "admin@srseducares.in", uploader["email"])
}

func TestGetMaterialNotFound(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/materials/6b1e61ad-33b7-44f7-94a3-64c3a10e30ef", f.adminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMaterialIsActiveFalse(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	buf, ct := uploadForm(t, map[string]string{"isActive": "false"}, "", "", "")
	w := f.do(t, http.MethodPut, "/materials/"+id, f.adminToken, buf, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	material := body["material"].(map[string]interface{})
	assert.Equal(t, false, material["isActive"])
}

func TestUpdateMaterialJSONBody(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	payload := `{"title":"Motion Revised","isActive":false}`
	w := f.do(t, http.MethodPut, "/materials/"+id, f.adminToken, strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	material := body["material"].(map[string]interface{})
	assert.Equal(t, "Motion Revised", material["title"])
	assert.Equal(t, false, material["isActive"])
	// 未提供的字段保持原值
	assert.Equal(t, "Kinematics", material["topic"])
}

func TestDeleteMaterial(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	w := f.do(t, http.MethodDelete, "/materials/"+id, f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/materials/"+id, f.adminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMaterialNotFound(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodDelete, "/materials/6b1e61ad-33b7-44f7-94a3-64c3a10e30ef", f.adminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaterialStats(t *testing.T) {
	f := newAPIFixture(t)
	f.uploadMaterial(t)
	f.uploadMaterial(t)

	w := f.do(t, http.MethodGet, "/materials/stats", f.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	stats := body["stats"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["totalMaterials"])
}

func TestStudentListMaterials(t *testing.T) {
	f := newAPIFixture(t)
	f.uploadMaterial(t)

	w := f.do(t, http.MethodGet, "/student/materials", f.studentToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["totalMaterials"])
	grouped := body["groupedMaterials"].(map[string]interface{})
	require.Len(t, grouped, 5)
	bucket := grouped["study-material"].([]interface{})
	require.Len(t, bucket, 1)
	entry := bucket[0].(map[string]interface{})
	assert.Equal(t, "Motion in a Straight Line", entry["name"])
	_, leaked := entry["filePath"]
	assert.False(t, leaked, "student projection must not expose filePath")
}

func TestStudentDownload(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	w := f.do(t, http.MethodGet, "/student/materials/download/"+id, f.studentToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="motion.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF body", w.Body.String())

	var m models.Material
	require.NoError(t, f.db.First(&m, "id = ?", id).Error)
	assert.EqualValues(t, 1, m.DownloadCount)
	assert.EqualValues(t, 0, m.ViewCount)
}

func TestStudentView(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	w := f.do(t, http.MethodGet, "/student/materials/view/"+id, f.studentToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="motion.pdf"`, w.Header().Get("Content-Disposition"))

	var m models.Material
	require.NoError(t, f.db.First(&m, "id = ?", id).Error)
	assert.EqualValues(t, 1, m.ViewCount)
}

func TestStudentDownloadUnknownMaterial(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/student/materials/download/6b1e61ad-33b7-44f7-94a3-64c3a10e30ef", f.studentToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentDownloadDeletedProfile(t *testing.T) {
	f := newAPIFixture(t)
	id := f.uploadMaterial(t)

	require.NoError(t, f.db.Delete(&models.Student{}, "id = ?", f.student.ID).Error)

	w := f.do(t, http.MethodGet, "/student/materials/download/"+id, f.studentToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	payload := `{"username":"ravi","email":"ravi@example.com","phone":"9876543210","password":"secret123","isAdmin":true}`
	w := f.do(t, http.MethodPost, "/auth/register", "", strings.NewReader(payload), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// 注册返回的 admin token 能直接访问管理端
	w = f.do(t, http.MethodGet, "/materials", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", "", strings.NewReader(`{"email":"ravi@example.com","password":"secret123"}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", "", strings.NewReader(`{"email":"ravi@example.com","password":"bad"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
