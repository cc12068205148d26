package handler

import (
	"errors"
	"net/http"

	"github.com/srseducares/educares-backend/service"
	"github.com/srseducares/educares-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError 把服务层错误映射到响应包络。内部错误细节只进日志。
func respondError(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	switch {
	case service.IsValidation(err),
		errors.Is(err, storage.ErrRejectedType),
		errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrMaterialNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPhoneTaken):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
	default:
		logger.WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}
