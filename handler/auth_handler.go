package handler

import (
	"net/http"

	"github.com/srseducares/educares-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	auth   service.AuthService
	logger *logrus.Logger
}

func NewAuthHandler(auth service.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Password string `json:"password"`
	Class    string `json:"userClass"`
	Stream   string `json:"userStream"`
	Course   string `json:"userCourse"`
	IsAdmin  bool   `json:"isAdmin"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 用户注册
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	user, token, err := h.auth.Register(service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		City:     req.City,
		Password: req.Password,
		Class:    req.Class,
		Stream:   req.Stream,
		Course:   req.Course,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		respondError(c, h.logger, err, "registration failed")
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email, "is_admin": user.IsAdmin}).Info("user registered")

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "registration successful",
		"token":    token,
		"userId":   user.ID.String(),
		"email":    user.Email,
		"username": user.Username,
		"isAdmin":  user.IsAdmin,
	})
}

// Login 用户登录
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	user, token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "login successful",
		"token":    token,
		"userId":   user.ID.String(),
		"email":    user.Email,
		"username": user.Username,
		"isAdmin":  user.IsAdmin,
	})
}

// StudentLogin 学生登录
// POST /auth/student/login
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	student, token, err := h.auth.LoginStudent(req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "login successful",
		"token":     token,
		"studentId": student.ID.String(),
		"email":     student.Email,
		"name":      student.Name,
		"course":    student.Course,
	})
}
