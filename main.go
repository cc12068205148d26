package main

import (
	"github.com/srseducares/educares-backend/config"
	"github.com/srseducares/educares-backend/database"
	"github.com/srseducares/educares-backend/events"
	"github.com/srseducares/educares-backend/handler"
	"github.com/srseducares/educares-backend/middleware"
	"github.com/srseducares/educares-backend/models"
	"github.com/srseducares/educares-backend/repository"
	"github.com/srseducares/educares-backend/router"
	"github.com/srseducares/educares-backend/service"
	"github.com/srseducares/educares-backend/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func autoMigrate(db *gorm.DB, logger *logrus.Logger) {
	if err := db.AutoMigrate(&models.User{}, &models.Student{}, &models.Material{}); err != nil {
		logger.Fatalf("auto migrate failed: %v", err)
	}
}

func newFileStore(cfg *config.Config, logger *logrus.Logger) storage.FileStore {
	switch cfg.Storage.Backend {
	case "minio":
		store, err := storage.NewMinioStore(cfg.MinIO)
		if err != nil {
			logger.Fatalf("failed to init MinIO store: %v", err)
		}
		return store
	default:
		store, err := storage.NewLocalStore(cfg.Storage.UploadDir)
		if err != nil {
			logger.Fatalf("failed to init local store: %v", err)
		}
		return store
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db := database.InitDB(cfg)
	autoMigrate(db, logger)

	fileStore := newFileStore(cfg, logger)

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if publisher == nil {
		logger.Info("kafka publisher disabled (missing config)")
	}
	defer publisher.Close()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)

	authService := service.NewAuthService(userRepo, studentRepo, cfg.JWT.Secret, cfg.JWT.ExpireMinutes)
	materialService := service.NewMaterialService(materialRepo, fileStore, publisher, logger)
	studentService := service.NewStudentMaterialService(materialRepo, studentRepo, fileStore, publisher, logger)

	authn := middleware.NewAuthenticator(authService)
	r := router.Setup(
		authn,
		handler.NewAuthHandler(authService, logger),
		handler.NewMaterialHandler(materialService, logger),
		handler.NewStudentMaterialHandler(studentService, logger),
	)

	logger.Infof("educares backend listening on %s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
