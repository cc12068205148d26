package database

import (
	"github.com/srseducares/educares-backend/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB(cfg *config.Config) *gorm.DB {
	dsn := "host=" + cfg.Database.DBHost + " user=" + cfg.Database.DBUser + " password=" + cfg.Database.DBPassword + " dbname=" + cfg.Database.DBName + " port=" + cfg.Database.DBPort + " sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	return db
}
