package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	MinIO    MinIOConfig
	Kafka    KafkaConfig
	HTTPPort string
	LogLevel string
}

type DatabaseConfig struct {
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string
}

type JWTConfig struct {
	Secret        string
	ExpireMinutes int
}

type StorageConfig struct {
	// Backend 取值 local | minio
	Backend   string
	UploadDir string
}

type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
}

type KafkaConfig struct {
	Brokers string
	Topic   string
}

// LoadConfig 从环境变量装配配置。JWT_SECRET 缺失时直接退出，
// 不提供编译期默认值。
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatalf("JWT_SECRET must be set")
	}

	expireMinutes := 60 * 24 * 30 // 默认 30 天有效期
	if v := os.Getenv("JWT_EXPIRE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expireMinutes = n
		}
	}

	return &Config{
		Database: DatabaseConfig{
			DBUser:     os.Getenv("DB_USER"),
			DBPassword: os.Getenv("DB_PASSWORD"),
			DBName:     os.Getenv("DB_NAME"),
			DBHost:     os.Getenv("DB_HOST"),
			DBPort:     os.Getenv("DB_PORT"),
		},
		JWT: JWTConfig{
			Secret:        secret,
			ExpireMinutes: expireMinutes,
		},
		Storage: StorageConfig{
			Backend:   getEnv("STORAGE_BACKEND", "local"),
			UploadDir: getEnv("UPLOAD_DIR", "uploads/study-materials"),
		},
		MinIO: MinIOConfig{
			Endpoint:        os.Getenv("MINIO_ENDPOINT"),
			AccessKeyID:     os.Getenv("MINIO_ACCESS_KEY"),
			SecretAccessKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:          os.Getenv("MINIO_USE_SSL") == "true",
			BucketName:      getEnv("MINIO_BUCKET_NAME", "study-materials"),
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "material.events"),
		},
		HTTPPort: getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
